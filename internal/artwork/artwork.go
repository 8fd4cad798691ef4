// Package artwork turns the primary image of the playing item into a small
// square thumbnail on disk, for use by the presence notification.
package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG format support
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/synremote/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	cacheSize   = 32
	jpegQuality = 85
)

// Service fetches, resizes and caches thumbnails keyed by item id.
// Evicted thumbnails are removed from disk.
type Service struct {
	logger    *zap.Logger
	transport domain.Transport
	fs        afero.Fs
	dir       string
	size      int
	cache     *lru.Cache[string, string]

	mu          sync.Mutex
	currentItem string
	current     string
}

// NewService creates a thumbnail service writing into the configured directory
func NewService(logger *zap.Logger, transport domain.Transport, fs afero.Fs, cfg domain.Config) (*Service, error) {
	s := &Service{
		logger:    logger,
		transport: transport,
		fs:        fs,
		dir:       cfg.ArtworkDir(),
		size:      cfg.ArtworkSize(),
	}

	cache, err := lru.NewWithEvict(cacheSize, func(itemID, path string) {
		if err := s.fs.Remove(path); err != nil {
			s.logger.Debug("Failed to remove evicted thumbnail", zap.String("path", path), zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Current returns the thumbnail path of the current item, or ""
func (s *Service) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Select makes itemID the current item and returns its thumbnail path,
// generating the thumbnail on a cache miss. If another item is selected
// while the download runs, the result is cached but not made current.
func (s *Service) Select(ctx context.Context, itemID string) (string, error) {
	s.mu.Lock()
	s.currentItem = itemID
	s.current = ""
	s.mu.Unlock()

	if itemID == "" {
		return "", nil
	}

	path, ok := s.cache.Get(itemID)
	if !ok {
		var err error
		path, err = s.generate(ctx, itemID)
		if err != nil {
			return "", err
		}
		s.cache.Add(itemID, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentItem != itemID {
		return "", nil
	}
	s.current = path
	return path, nil
}

// Clear forgets the current item
func (s *Service) Clear() {
	s.mu.Lock()
	s.currentItem = ""
	s.current = ""
	s.mu.Unlock()
}

func (s *Service) generate(ctx context.Context, itemID string) (string, error) {
	data, err := s.transport.FetchImage(ctx, itemID, s.size*2)
	if err != nil {
		return "", fmt.Errorf("failed to fetch artwork: %w", err)
	}

	thumb, err := s.Process(data)
	if err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artwork directory: %w", err)
	}
	path := filepath.Join(s.dir, thumbnailName(itemID))
	if err := afero.WriteFile(s.fs, path, thumb, 0o644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}

	s.logger.Debug("Thumbnail generated",
		zap.String("item", itemID),
		zap.String("path", path),
		zap.Int("bytes", len(thumb)))
	return path, nil
}

// Process decodes an image and crops it to a centered square thumbnail
func (s *Service) Process(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	thumb := imaging.Fill(img, s.size, s.size, imaging.Center, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbnailName keeps item ids from escaping the artwork directory
func thumbnailName(itemID string) string {
	return filepath.Base(filepath.Clean("/"+itemID)) + ".jpg"
}
