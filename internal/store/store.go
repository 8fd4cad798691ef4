// Package store persists the controller's small amount of state between runs:
// the last controlled session and this controller's own device id.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const stateFile = "state.json"

type state struct {
	LastSessionID string `json:"last_session_id,omitempty"`
	DeviceID      string `json:"device_id,omitempty"`
}

// FileStore is a SessionStore backed by a JSON file
type FileStore struct {
	logger *zap.Logger
	fs     afero.Fs
	path   string
	mu     sync.Mutex
}

// NewFileStore creates a store keeping its file in dir
func NewFileStore(logger *zap.Logger, fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{
		logger: logger,
		fs:     fs,
		path:   filepath.Join(dir, stateFile),
	}, nil
}

// LastSessionID returns the persisted target session id
func (s *FileStore) LastSessionID() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", false, err
	}
	return st.LastSessionID, st.LastSessionID != "", nil
}

// SaveLastSession persists the target session id
func (s *FileStore) SaveLastSession(id string) error {
	return s.update(func(st *state) {
		st.LastSessionID = id
	})
}

// ClearLastSession forgets the persisted target session id
func (s *FileStore) ClearLastSession() error {
	return s.update(func(st *state) {
		st.LastSessionID = ""
	})
}

// DeviceID returns this controller's device id, generating and persisting one on first use
func (s *FileStore) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", err
	}
	if st.DeviceID != "" {
		return st.DeviceID, nil
	}

	st.DeviceID = uuid.NewString()
	if err := s.save(st); err != nil {
		return "", err
	}
	s.logger.Info("Generated controller device id", zap.String("deviceId", st.DeviceID))
	return st.DeviceID, nil
}

func (s *FileStore) update(mutate func(*state)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	mutate(&st)
	return s.save(st)
}

func (s *FileStore) load() (state, error) {
	var st state

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read state: %w", err)
	}

	if err := json.Unmarshal(data, &st); err != nil {
		// A corrupt file only costs the restore-on-resume hint
		s.logger.Warn("Discarding unreadable state file", zap.String("path", s.path), zap.Error(err))
		return state{}, nil
	}
	return st, nil
}

// save writes through a temp file and rename so a crash never leaves a torn file
func (s *FileStore) save(st state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}
