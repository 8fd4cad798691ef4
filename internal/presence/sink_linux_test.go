package presence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/genricoloni/synremote/internal/config"
	"github.com/genricoloni/synremote/internal/presence"
	"github.com/genricoloni/synremote/internal/presence/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type staticArtwork string

func (a staticArtwork) Current() string { return string(a) }

func newSink(client presence.NotificationClient, dialErr error, dials *int) *presence.NotificationSink {
	return presence.NewNotificationSink(zap.NewNop(), config.Static{}, staticArtwork("/tmp/synremote/item-1.jpg")).
		WithDialer(func() (presence.NotificationClient, error) {
			*dials++
			if dialErr != nil {
				return nil, dialErr
			}
			return client, nil
		})
}

func TestNotificationSink_StartReusesNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockNotificationClient(ctrl)
	dials := 0
	sink := newSink(client, nil, &dials)
	ctx := context.Background()

	gomock.InOrder(
		client.EXPECT().Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n presence.Notification) (uint32, error) {
				if n.ReplacesID != 0 || n.Summary != "Episode 1" || n.AppName != "synremote" {
					t.Errorf("unexpected first notification: %+v", n)
				}
				if v, ok := n.Hints["resident"]; !ok || v.Value() != true {
					t.Error("notification should be resident")
				}
				if v, ok := n.Hints["image-path"]; !ok || v.Value() != "/tmp/synremote/item-1.jpg" {
					t.Error("artwork should be attached as image-path")
				}
				return 7, nil
			}),
		client.EXPECT().Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n presence.Notification) (uint32, error) {
				if n.ReplacesID != 7 || n.Summary != "Episode 2" {
					t.Errorf("second notification should replace the first: %+v", n)
				}
				return 7, nil
			}),
		client.EXPECT().CloseNotification(gomock.Any(), uint32(7)).Return(nil),
		client.EXPECT().Close().Return(nil),
	)

	if err := sink.Start(ctx, "Episode 1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sink.Start(ctx, "Episode 2"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sink.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Nothing shown any more
	if err := sink.Stop(ctx); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if dials != 1 {
		t.Errorf("expected a single lazy connection, got %d", dials)
	}
}

func TestNotificationSink_NoBus(t *testing.T) {
	dials := 0
	sink := newSink(nil, errors.New("no DBUS_SESSION_BUS_ADDRESS"), &dials)

	err := sink.Start(context.Background(), "Episode 1")
	if !errors.Is(err, presence.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if err := sink.Stop(context.Background()); err != nil {
		t.Errorf("Stop without a notification should succeed, got %v", err)
	}
}

func TestNotificationSink_ReconnectsAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockNotificationClient(ctrl)
	dials := 0
	sink := newSink(client, nil, &dials)

	gomock.InOrder(
		client.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(uint32(0), errors.New("connection reset")),
		client.EXPECT().Close().Return(nil),
		client.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(uint32(3), nil),
	)

	if err := sink.Start(context.Background(), "A"); err == nil {
		t.Fatal("expected error from failed Notify")
	}
	if err := sink.Start(context.Background(), "A"); err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
	if dials != 2 {
		t.Errorf("expected reconnect, dials = %d", dials)
	}
}
