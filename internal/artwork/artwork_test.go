package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/genricoloni/synremote/internal/config"
	"github.com/genricoloni/synremote/internal/domain/mocks"
	"github.com/spf13/afero"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) (*Service, *mocks.MockTransport, afero.Fs) {
	t.Helper()
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	fs := afero.NewMemMapFs()
	cfg := config.Static{Artwork: "/art", ArtworkEdge: 16}

	s, err := NewService(zap.NewNop(), transport, fs, cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return s, transport, fs
}

func TestSelect_GeneratesSquareThumbnail(t *testing.T) {
	s, transport, fs := newTestService(t)

	transport.EXPECT().FetchImage(gomock.Any(), "item-1", 32).Return(pngBytes(t, 40, 20), nil).Times(1)

	path, err := s.Select(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if path != "/art/item-1.jpg" || s.Current() != path {
		t.Fatalf("unexpected path %q (current %q)", path, s.Current())
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("thumbnail is %dx%d, want 16x16", b.Dx(), b.Dy())
	}

	// Cached: no second download
	if again, err := s.Select(context.Background(), "item-1"); err != nil || again != path {
		t.Errorf("cached Select() = %q, %v", again, err)
	}
}

func TestSelect_Failures(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		err   error
		check func(*testing.T, error)
	}{
		{
			name: "Fetch Error",
			err:  errors.New("404"),
			check: func(t *testing.T, err error) {
				if err == nil || err.Error() != "failed to fetch artwork: 404" {
					t.Errorf("unexpected error %v", err)
				}
			},
		},
		{
			name: "Not An Image",
			data: []byte("<html>"),
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected decode error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, transport, _ := newTestService(t)
			transport.EXPECT().FetchImage(gomock.Any(), "item-1", gomock.Any()).Return(tt.data, tt.err)

			path, err := s.Select(context.Background(), "item-1")
			tt.check(t, err)
			if path != "" || s.Current() != "" {
				t.Error("failed generation must not set a current thumbnail")
			}
		})
	}
}

func TestSelect_EvictionRemovesFile(t *testing.T) {
	s, transport, fs := newTestService(t)
	transport.EXPECT().FetchImage(gomock.Any(), gomock.Any(), gomock.Any()).Return(pngBytes(t, 4, 4), nil).AnyTimes()

	for i := 0; i <= cacheSize; i++ {
		if _, err := s.Select(context.Background(), fmt.Sprintf("item-%d", i)); err != nil {
			t.Fatalf("Select %d failed: %v", i, err)
		}
	}

	if ok, _ := afero.Exists(fs, "/art/item-0.jpg"); ok {
		t.Error("least recently used thumbnail should be deleted")
	}
	if ok, _ := afero.Exists(fs, fmt.Sprintf("/art/item-%d.jpg", cacheSize)); !ok {
		t.Error("newest thumbnail should exist")
	}
}

func TestSelectEmptyAndClear(t *testing.T) {
	s, transport, _ := newTestService(t)
	transport.EXPECT().FetchImage(gomock.Any(), gomock.Any(), gomock.Any()).Return(pngBytes(t, 4, 4), nil)

	if _, err := s.Select(context.Background(), "item-1"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	s.Clear()
	if s.Current() != "" {
		t.Error("Clear should reset the current thumbnail")
	}
	if path, err := s.Select(context.Background(), ""); path != "" || err != nil {
		t.Errorf("Select(\"\") = %q, %v", path, err)
	}
}

func TestThumbnailName(t *testing.T) {
	tests := map[string]string{
		"abc123":        "abc123.jpg",
		"../../etc/pwd": "pwd.jpg",
		"a/b":           "b.jpg",
	}
	for in, want := range tests {
		if got := thumbnailName(in); got != want {
			t.Errorf("thumbnailName(%q) = %q, want %q", in, got, want)
		}
	}
}
