package presence

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// Notification is one desktop notification request
type Notification struct {
	AppName    string
	ReplacesID uint32
	Icon       string
	Summary    string
	Body       string
	Hints      map[string]dbus.Variant
	// Timeout in milliseconds; 0 means the notification never expires
	Timeout int32
}

// NotificationClient defines the freedesktop Notifications calls the sink
// needs. This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/notification_client_mock.go -package=mocks github.com/genricoloni/synremote/internal/presence NotificationClient
type NotificationClient interface {
	// Notify shows or replaces a notification and returns its id
	Notify(ctx context.Context, n Notification) (uint32, error)

	// CloseNotification removes a notification
	CloseNotification(ctx context.Context, id uint32) error

	// Close closes the D-Bus connection
	Close() error
}

// StdNotificationClient is the real implementation using godbus
type StdNotificationClient struct {
	conn *dbus.Conn
}

// NewStdNotificationClient connects to the session bus
func NewStdNotificationClient() (NotificationClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdNotificationClient{conn: conn}, nil
}

// Notify calls org.freedesktop.Notifications.Notify
func (c *StdNotificationClient) Notify(ctx context.Context, n Notification) (uint32, error) {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	var id uint32
	obj := c.conn.Object(notificationsService, notificationsPath)
	err := obj.CallWithContext(ctx, notificationsInterface+".Notify", 0,
		n.AppName, n.ReplacesID, n.Icon, n.Summary, n.Body,
		[]string{}, hints, n.Timeout).Store(&id)
	return id, err
}

// CloseNotification calls org.freedesktop.Notifications.CloseNotification
func (c *StdNotificationClient) CloseNotification(ctx context.Context, id uint32) error {
	obj := c.conn.Object(notificationsService, notificationsPath)
	return obj.CallWithContext(ctx, notificationsInterface+".CloseNotification", 0, id).Err
}

// Close closes the D-Bus connection
func (c *StdNotificationClient) Close() error {
	return c.conn.Close()
}
