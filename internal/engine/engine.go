// Package engine wires the remote-control core together: it follows the
// target session through the poller, blends polled state with optimistic
// edits, drives the presence indicator and exposes the playback intents.
package engine

import (
	"context"
	"sync"

	"github.com/genricoloni/synremote/internal/clock"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/poller"
	"github.com/genricoloni/synremote/internal/presence"
	"github.com/genricoloni/synremote/internal/reconciler"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/genricoloni/synremote/internal/serial"
	"github.com/genricoloni/synremote/internal/throttle"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// User-facing error messages
const (
	MsgCommandFailed  = "Command failed"
	MsgConnectionLost = "Lost connection to server"
	MsgSessionsFailed = "Failed to load sessions"
)

// Artwork provides thumbnails of the playing item
type Artwork interface {
	Select(ctx context.Context, itemID string) (string, error)
	Clear()
}

// Engine orchestrates polling, reconciliation, presence and commands for the
// current target session.
type Engine struct {
	logger    *zap.Logger
	cfg       domain.Config
	clock     clock.Clock
	transport domain.Transport
	selector  *selector.Selector
	poller    *poller.Poller
	bridge    *presence.Bridge
	artwork   Artwork

	reconciler *reconciler.Reconciler
	volume     *throttle.Dispatcher[int64]
	position   *throttle.Dispatcher[int64]
	rotary     *reconciler.Rotary
	commands   *serial.Queue

	ctx        context.Context
	cancel     context.CancelFunc
	background sync.WaitGroup
	unsubPoll  func()

	mu         sync.Mutex
	loading    bool
	pollErr    string
	commandErr string
	listErr    string
	notFound   bool

	publishMu   sync.Mutex
	subMu       sync.Mutex
	subscribers map[int]func(RemoteState)
	nextSubID   int
}

// NewEngine creates a new orchestration engine. artwork may be nil.
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	clk clock.Clock,
	transport domain.Transport,
	sel *selector.Selector,
	pol *poller.Poller,
	bridge *presence.Bridge,
	art Artwork,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		logger:      logger,
		cfg:         cfg,
		clock:       clk,
		transport:   transport,
		selector:    sel,
		poller:      pol,
		bridge:      bridge,
		artwork:     art,
		rotary:      reconciler.NewRotary(cfg.RotarySensitivity()),
		commands:    serial.NewQueue(),
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[int]func(RemoteState)),
	}

	e.volume = throttle.New(clk, cfg.DispatchInterval(), func(level int64) {
		e.sendTargeted(domain.CommandSetVolume, level, e.volume.Forget)
	})
	e.position = throttle.New(clk, cfg.DispatchInterval(), func(ticks int64) {
		e.sendTargeted(domain.CommandSeek, ticks, e.position.Forget)
	})
	e.reconciler = reconciler.New(logger, clk, cfg.FailsafeTimeout(), e.volume, e.position)
	e.reconciler.OnChange(e.publish)
	e.unsubPoll = pol.Subscribe(e.onPoll)

	return e
}

// Start loads the session list and resumes polling a restored target.
// An unreachable server is not fatal.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	if _, err := e.RefreshSessions(ctx); err != nil {
		e.logger.Warn("Initial session refresh failed", zap.Error(err))
	}
	return nil
}

// Stop halts polling, drains queued commands and hides the indicator
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	e.poller.Stop()
	e.unsubPoll()
	e.volume.Stop()
	e.position.Stop()

	var err error
	err = multierr.Append(err, e.commands.Close(ctx))
	err = multierr.Append(err, e.bridge.Close(ctx))

	e.cancel()
	e.background.Wait()

	if err != nil {
		e.logger.Error("Engine stopped with errors", zap.Error(err))
		return err
	}
	e.logger.Info("Engine stopped")
	return nil
}

// RefreshSessions reloads the controllable sessions. A vanished target is
// dropped; a persisted target is restored and polled.
func (e *Engine) RefreshSessions(ctx context.Context) (selector.RefreshResult, error) {
	e.setLoading(true)
	result, err := e.selector.Refresh(ctx)

	e.mu.Lock()
	e.loading = false
	if err != nil {
		e.listErr = MsgSessionsFailed
	} else {
		e.listErr = ""
	}
	e.mu.Unlock()

	if err != nil {
		e.publish()
		return result, err
	}

	switch {
	case result.Lost:
		e.logger.Info("Target session disappeared, returning to session selection")
		e.dropTarget()
	case result.Restored:
		e.StartPolling()
	}

	e.publish()
	return result, nil
}

// SetTargetSession makes session the target and starts polling it
func (e *Engine) SetTargetSession(session domain.TargetSession) {
	if err := e.selector.SetTarget(session); err != nil {
		e.logger.Warn("Failed to persist target session", zap.Error(err))
	}
	e.logger.Info("Target session selected",
		zap.String("sessionId", session.SessionID),
		zap.String("device", session.DeviceName))

	e.resetPlayback()
	e.mu.Lock()
	e.commandErr = ""
	e.pollErr = ""
	e.notFound = false
	e.mu.Unlock()

	e.StartPolling()
	e.publish()
}

// ClearTargetSession forgets the target and stops polling
func (e *Engine) ClearTargetSession() {
	if err := e.selector.ClearTarget(); err != nil {
		e.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}
	e.dropTarget()
	e.publish()
}

// StartPolling polls the current target; without a target it does nothing
func (e *Engine) StartPolling() {
	target, ok := e.selector.Target()
	if !ok {
		e.logger.Debug("No target session, not polling")
		return
	}
	e.setLoading(true)
	e.poller.Start(e.ctx, target.SessionID)
}

// StopPolling stops polling; the last known state stays visible
func (e *Engine) StopPolling() {
	e.poller.Stop()
	e.setLoading(false)
}

// Flush waits for every command issued so far to complete
func (e *Engine) Flush(ctx context.Context) error {
	return e.commands.Flush(ctx)
}

func (e *Engine) dropTarget() {
	e.poller.Stop()
	e.resetPlayback()
	e.bridge.ForceStop()
	if e.artwork != nil {
		e.artwork.Clear()
	}

	e.mu.Lock()
	e.loading = false
	e.pollErr = ""
	e.notFound = false
	e.mu.Unlock()
}

func (e *Engine) resetPlayback() {
	e.reconciler.Reset()
	e.rotary.Reset()
}

func (e *Engine) setLoading(loading bool) {
	e.mu.Lock()
	e.loading = loading
	e.mu.Unlock()
}

// onPoll runs on the poller's goroutine for every completed poll
func (e *Engine) onPoll(u poller.Update) {
	target, ok := e.selector.Target()
	if !ok || target.SessionID != u.SessionID {
		return
	}

	e.mu.Lock()
	e.loading = false
	switch {
	case u.Err != nil:
		e.pollErr = MsgConnectionLost
	case u.NotFound:
		e.pollErr = ""
		e.notFound = true
	default:
		e.pollErr = ""
		e.notFound = false
	}
	e.mu.Unlock()

	if snap := u.Snapshot; snap != nil {
		e.reconciler.ApplySnapshot(*snap)
		e.bridge.SyncFromPoll(snap.HasMedia(), snap.Title())
		if u.Previous == nil || u.Previous.NowPlayingID != snap.NowPlayingID {
			e.updateArtwork(snap.NowPlayingID.OrEmpty())
		}
	}

	e.publish()
}

func (e *Engine) updateArtwork(itemID string) {
	if e.artwork == nil {
		return
	}
	if itemID == "" {
		e.artwork.Clear()
		return
	}

	e.background.Add(1)
	go func() {
		defer e.background.Done()

		path, err := e.artwork.Select(e.ctx, itemID)
		if err != nil {
			e.logger.Debug("Artwork unavailable", zap.String("item", itemID), zap.Error(err))
			return
		}
		if path != "" {
			e.bridge.Refresh()
		}
	}()
}
