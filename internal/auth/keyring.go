// Package auth keeps the media server access token in the system keyring.
package auth

import (
	"errors"
	"fmt"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
)

const service = "synremote"

// ErrNoToken is returned when neither the configuration nor the keyring holds a token
var ErrNoToken = errors.New("no access token configured")

// TokenStore reads and writes the access token for one server
type TokenStore struct {
	logger *zap.Logger
	cfg    domain.Config
}

// NewTokenStore creates a keyring-backed token store
func NewTokenStore(logger *zap.Logger, cfg domain.Config) *TokenStore {
	return &TokenStore{logger: logger, cfg: cfg}
}

// Token returns the configured token, falling back to the keyring entry for the server
func (s *TokenStore) Token() (string, error) {
	if token := s.cfg.Token(); token != "" {
		return token, nil
	}

	token, err := keyring.Get(service, s.account())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("keyring lookup failed: %w", err)
	}
	return token, nil
}

// SetToken persists the token in the keyring
func (s *TokenStore) SetToken(token string) error {
	if token == "" {
		return ErrNoToken
	}
	if err := keyring.Set(service, s.account(), token); err != nil {
		return fmt.Errorf("keyring write failed: %w", err)
	}
	s.logger.Info("Access token stored in keyring", zap.String("account", s.account()))
	return nil
}

// DeleteToken removes the token from the keyring; a missing entry is not an error
func (s *TokenStore) DeleteToken() error {
	err := keyring.Delete(service, s.account())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

// account keys the keyring entry by server and user so several setups can coexist
func (s *TokenStore) account() string {
	return s.cfg.UserID() + "@" + s.cfg.ServerURL()
}
