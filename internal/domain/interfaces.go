package domain

import (
	"context"
	"time"

	"github.com/samber/mo"
)

// Transport defines the media server's session API.
// Implementations handle HTTP and authentication details.
//
//go:generate mockgen -destination=mocks/transport_mock.go -package=mocks github.com/genricoloni/synremote/internal/domain Transport
type Transport interface {
	// FetchControllableSessions lists the sessions the given user may control
	FetchControllableSessions(ctx context.Context, userID string) ([]RawSession, error)

	// SendCommand sends a general command (volume, mute, track selection)
	SendCommand(ctx context.Context, sessionID, name string, args map[string]string) error

	// SendPlaystateCommand sends a playstate command (play, pause, seek, stop, ...)
	SendPlaystateCommand(ctx context.Context, sessionID, name string, args map[string]string) error

	// StartPlayback asks the session to play the given items
	StartPlayback(ctx context.Context, sessionID string, itemIDs []string, startPositionTicks mo.Option[int64]) error

	// FetchImage downloads the primary image of an item
	FetchImage(ctx context.Context, itemID string, maxHeight int) ([]byte, error)
}

// PresenceSink is the external "media is loaded" indicator.
// Both calls may fail; callers treat the indicator as best-effort.
//
//go:generate mockgen -destination=mocks/presence_sink_mock.go -package=mocks github.com/genricoloni/synremote/internal/domain PresenceSink
type PresenceSink interface {
	// Start shows (or updates) the indicator with the given title
	Start(ctx context.Context, title string) error

	// Stop hides the indicator
	Stop(ctx context.Context) error
}

// SessionStore persists controller state between runs
//
//go:generate mockgen -destination=mocks/session_store_mock.go -package=mocks github.com/genricoloni/synremote/internal/domain SessionStore
type SessionStore interface {
	// LastSessionID returns the persisted target session id, if any
	LastSessionID() (string, bool, error)

	// SaveLastSession persists the target session id
	SaveLastSession(id string) error

	// ClearLastSession forgets the persisted target session id
	ClearLastSession() error

	// DeviceID returns this controller's own device id, generating it on first use
	DeviceID() (string, error)
}

// ArtworkSource provides the thumbnail of the item currently playing
type ArtworkSource interface {
	// Current returns the path of the latest thumbnail, or "" if none is available
	Current() string
}

// Config defines the interface for application configuration
type Config interface {
	// ServerURL returns the media server base URL
	ServerURL() string

	// UserID returns the id of the authenticated user
	UserID() string

	// Token returns the configured access token ("" when it lives in the keyring)
	Token() string

	// ClientName returns the client name reported to the server
	ClientName() string

	// ClientVersion returns the client version reported to the server
	ClientVersion() string

	// DeviceName returns the device name reported to the server
	DeviceName() string

	// PollInterval returns the session polling period
	PollInterval() time.Duration

	// DispatchInterval returns the minimum spacing of throttled commands
	DispatchInterval() time.Duration

	// FailsafeTimeout returns how long an optimistic edit may stay unconfirmed
	FailsafeTimeout() time.Duration

	// RotarySensitivity returns the wheel magnitude that makes one volume step
	RotarySensitivity() float64

	// SeekStep returns the relative seek step in seconds
	SeekStep() int

	// StateDir returns the directory for persisted controller state
	StateDir() string

	// ArtworkDir returns the directory for generated thumbnails
	ArtworkDir() string

	// ArtworkSize returns the thumbnail edge length in pixels
	ArtworkSize() int

	// APIListen returns the listen address of the local control API
	APIListen() string
}
