// Package presence drives the external "media is loaded" indicator.
package presence

import (
	"context"
	"errors"
	"sync"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/serial"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by sinks on hosts without a notification service
var ErrUnsupported = errors.New("presence indicator not supported on this host")

// Bridge owns the shown/hidden state of the indicator and turns state
// transitions into sink calls. Decisions are made when a method is called;
// the resulting sink calls run one at a time, in call order.
type Bridge struct {
	logger *zap.Logger
	sink   domain.PresenceSink
	queue  *serial.Queue

	mu    sync.Mutex
	shown bool
	title string
}

// NewBridge creates a bridge in the hidden state
func NewBridge(logger *zap.Logger, sink domain.PresenceSink) *Bridge {
	return &Bridge{
		logger: logger,
		sink:   sink,
		queue:  serial.NewQueue(),
	}
}

// SyncFromPoll shows the indicator when media is loaded and it is hidden or
// showing another title, and hides it when nothing is loaded
func (b *Bridge) SyncFromPoll(hasMedia bool, title string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case hasMedia && (!b.shown || b.title != title):
		b.shown = true
		b.title = title
		b.enqueueLocked("start", func(ctx context.Context) error {
			return b.sink.Start(ctx, title)
		})
	case !hasMedia && b.shown:
		b.hideLocked()
	}
}

// Refresh re-issues the start call for the shown title so the sink can pick
// up details that changed since, such as artwork. No-op while hidden.
func (b *Bridge) Refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.shown {
		return
	}
	title := b.title
	b.enqueueLocked("start", func(ctx context.Context) error {
		return b.sink.Start(ctx, title)
	})
}

// ForceStop hides the indicator whatever its recorded state
func (b *Bridge) ForceStop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hideLocked()
}

// Shown reports the recorded indicator state
func (b *Bridge) Shown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shown
}

// Flush waits until every sink call issued so far has completed
func (b *Bridge) Flush(ctx context.Context) error {
	return b.queue.Flush(ctx)
}

// Close hides the indicator and waits for the queue to drain
func (b *Bridge) Close(ctx context.Context) error {
	b.ForceStop()
	err := b.queue.Close(ctx)
	if closer, ok := b.sink.(interface{ Close() error }); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

func (b *Bridge) hideLocked() {
	b.shown = false
	b.title = ""
	b.enqueueLocked("stop", b.sink.Stop)
}

// enqueueLocked is called with mu held so that queue order matches decision order
func (b *Bridge) enqueueLocked(op string, call func(ctx context.Context) error) {
	err := b.queue.Enqueue(func(ctx context.Context) {
		if err := call(ctx); err != nil {
			b.logger.Debug("Presence sink call failed", zap.String("op", op), zap.Error(err))
		}
	})
	if err != nil {
		b.logger.Debug("Presence call dropped", zap.String("op", op), zap.Error(err))
	}
}
