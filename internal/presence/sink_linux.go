package presence

import (
	"context"
	"fmt"
	"sync"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const playbackIcon = "media-playback-start"

// NotificationSink shows the indicator as a resident desktop notification.
// The session bus connection is opened on first use and reopened after a
// failed call.
type NotificationSink struct {
	logger  *zap.Logger
	cfg     domain.Config
	artwork domain.ArtworkSource
	dial    func() (NotificationClient, error)

	mu     sync.Mutex
	client NotificationClient
	id     uint32
}

// NewNotificationSink creates a sink; artwork may be nil
func NewNotificationSink(logger *zap.Logger, cfg domain.Config, artwork domain.ArtworkSource) *NotificationSink {
	return &NotificationSink{
		logger:  logger,
		cfg:     cfg,
		artwork: artwork,
		dial:    NewStdNotificationClient,
	}
}

// WithDialer replaces the function used to open the bus connection
func (s *NotificationSink) WithDialer(dial func() (NotificationClient, error)) *NotificationSink {
	s.dial = dial
	return s
}

// Start shows the notification or updates it in place
func (s *NotificationSink) Start(ctx context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := s.connectLocked()
	if err != nil {
		return err
	}

	hints := map[string]dbus.Variant{
		"resident":  dbus.MakeVariant(true),
		"transient": dbus.MakeVariant(false),
		"category":  dbus.MakeVariant("x-synremote.playback"),
	}
	if s.artwork != nil {
		if path := s.artwork.Current(); path != "" {
			hints["image-path"] = dbus.MakeVariant(path)
		}
	}

	id, err := client.Notify(ctx, Notification{
		AppName:    s.cfg.ClientName(),
		ReplacesID: s.id,
		Icon:       playbackIcon,
		Summary:    title,
		Body:       "Playing on remote session",
		Hints:      hints,
	})
	if err != nil {
		s.resetLocked()
		return fmt.Errorf("failed to show notification: %w", err)
	}
	s.id = id
	return nil
}

// Stop removes the notification if one is shown
func (s *NotificationSink) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == 0 || s.client == nil {
		s.id = 0
		return nil
	}
	err := s.client.CloseNotification(ctx, s.id)
	s.id = 0
	if err != nil {
		s.resetLocked()
		return fmt.Errorf("failed to close notification: %w", err)
	}
	return nil
}

// Close releases the bus connection
func (s *NotificationSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *NotificationSink) connectLocked() (NotificationClient, error) {
	if s.client != nil {
		return s.client, nil
	}
	client, err := s.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: session bus connection failed: %v", ErrUnsupported, err)
	}
	s.logger.Debug("Connected to notification service")
	s.client = client
	return client, nil
}

func (s *NotificationSink) resetLocked() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Debug("Failed to close D-Bus connection", zap.Error(err))
		}
	}
	s.client = nil
	s.id = 0
}
