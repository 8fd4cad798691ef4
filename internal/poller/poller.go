// Package poller keeps a fresh PlaybackSnapshot of the target session by
// polling the server's session list at a fixed interval.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/synremote/internal/clock"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Update is published to subscribers after every completed poll.
// Exactly one of Snapshot, Err or NotFound is set.
type Update struct {
	SessionID string
	Snapshot  *domain.PlaybackSnapshot
	// Previous is the snapshot the new one replaced, nil on the first success
	Previous *domain.PlaybackSnapshot
	Err      error
	NotFound bool
	Seq      uint64
}

// Poller polls one target session.
//
// At most one request is in flight; a tick that fires while a request is
// pending is skipped. Every run of Start gets a new generation, and results
// belonging to an older generation are dropped.
type Poller struct {
	logger    *zap.Logger
	transport domain.Transport
	clock     clock.Clock
	interval  time.Duration
	userID    string

	mu         sync.Mutex
	running    bool
	generation uint64
	targetID   string
	cancel     context.CancelFunc
	ctx        context.Context
	timer      clock.Timer
	inFlight   bool
	nextSeq    uint64
	appliedSeq uint64
	latest     *domain.PlaybackSnapshot

	subMu       sync.Mutex
	subscribers map[int]func(Update)
	nextSubID   int
}

// NewPoller creates an idle poller
func NewPoller(logger *zap.Logger, transport domain.Transport, clk clock.Clock, cfg domain.Config) *Poller {
	return &Poller{
		logger:      logger,
		transport:   transport,
		clock:       clk,
		interval:    cfg.PollInterval(),
		userID:      cfg.UserID(),
		subscribers: make(map[int]func(Update)),
	}
}

// Start begins polling targetID, replacing any previous schedule, and issues
// the first poll immediately
func (p *Poller) Start(ctx context.Context, targetID string) {
	p.mu.Lock()
	p.stopLocked()

	p.running = true
	p.targetID = targetID
	p.latest = nil
	p.ctx, p.cancel = context.WithCancel(ctx)
	gen := p.generation
	p.mu.Unlock()

	p.logger.Info("Session polling started",
		zap.String("sessionId", targetID),
		zap.Duration("interval", p.interval))

	p.tick(gen)
}

// Stop cancels the schedule. A request already in flight may still complete
// but its result is discarded. Calling Stop on an idle poller is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	wasRunning := p.running
	p.stopLocked()
	p.mu.Unlock()

	if wasRunning {
		p.logger.Info("Session polling stopped")
	}
}

// Running reports whether a schedule is active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Target returns the session id being polled, or "" when idle
func (p *Poller) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return ""
	}
	return p.targetID
}

// Latest returns the most recent snapshot of the current run
func (p *Poller) Latest() (domain.PlaybackSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return domain.PlaybackSnapshot{}, false
	}
	return *p.latest, true
}

// Subscribe registers fn to receive every update. fn runs on the polling
// goroutine and must return quickly. The returned func unregisters it.
func (p *Poller) Subscribe(fn func(Update)) func() {
	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subscribers, id)
			p.subMu.Unlock()
		})
	}
}

func (p *Poller) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
	p.inFlight = false
	p.generation++
}

func (p *Poller) tick(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.generation {
		p.mu.Unlock()
		return
	}

	p.timer = p.clock.AfterFunc(p.interval, func() { p.tick(gen) })

	if p.inFlight {
		p.mu.Unlock()
		p.logger.Debug("Poll still in flight, skipping tick")
		return
	}
	p.inFlight = true
	p.nextSeq++
	seq := p.nextSeq
	ctx := p.ctx
	target := p.targetID
	p.mu.Unlock()

	go p.poll(ctx, gen, seq, target)
}

func (p *Poller) poll(ctx context.Context, gen, seq uint64, target string) {
	sessions, err := p.transport.FetchControllableSessions(ctx, p.userID)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.inFlight = false
	if seq <= p.appliedSeq {
		p.mu.Unlock()
		p.logger.Debug("Dropping stale poll result", zap.Uint64("seq", seq))
		return
	}
	p.appliedSeq = seq

	update := Update{SessionID: target, Seq: seq}
	switch {
	case err != nil:
		update.Err = fmt.Errorf("failed to poll sessions: %w", err)
	default:
		raw, found := lo.Find(sessions, func(s domain.RawSession) bool {
			return s.ID == target
		})
		if !found {
			update.NotFound = true
			break
		}
		snap := domain.SnapshotFromSession(raw)
		update.Previous = p.latest
		update.Snapshot = &snap
		p.latest = &snap
	}
	p.mu.Unlock()

	switch {
	case update.Err != nil:
		p.logger.Debug("Session poll failed", zap.String("sessionId", target), zap.Error(err))
	case update.NotFound:
		p.logger.Debug("Target session not in session list", zap.String("sessionId", target))
	}

	p.publish(update)
}

func (p *Poller) publish(update Update) {
	p.subMu.Lock()
	subs := lo.Values(p.subscribers)
	p.subMu.Unlock()

	for _, fn := range subs {
		fn(update)
	}
}
