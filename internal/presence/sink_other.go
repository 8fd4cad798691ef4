//go:build !linux

package presence

import (
	"context"

	"github.com/genricoloni/synremote/internal/domain"
	"go.uber.org/zap"
)

// NotificationSink stub for non-Linux platforms
type NotificationSink struct {
	logger *zap.Logger
}

// NewNotificationSink creates a sink whose calls always fail with ErrUnsupported
func NewNotificationSink(logger *zap.Logger, _ domain.Config, _ domain.ArtworkSource) *NotificationSink {
	return &NotificationSink{logger: logger}
}

// Start returns ErrUnsupported
func (s *NotificationSink) Start(context.Context, string) error {
	return ErrUnsupported
}

// Stop returns ErrUnsupported
func (s *NotificationSink) Stop(context.Context) error {
	return ErrUnsupported
}

// Close is a no-op on non-Linux platforms
func (s *NotificationSink) Close() error {
	return nil
}
