// Package reconciler blends polled playback state with local optimistic
// edits so that the displayed volume and position never jump back while a
// command is still on its way to the target.
package reconciler

import (
	"math"
	"sync"
	"time"

	"github.com/genricoloni/synremote/internal/clock"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// Quantity is an adjustable playback value
type Quantity int

const (
	Volume Quantity = iota
	Position
)

func (q Quantity) String() string {
	switch q {
	case Volume:
		return "volume"
	case Position:
		return "position"
	default:
		return "unknown"
	}
}

// tolerance is the distance at which a polled value confirms an edit
func (q Quantity) tolerance() int64 {
	if q == Volume {
		return 1
	}
	return 0
}

// Dispatcher receives the target values of a quantity.
// *throttle.Dispatcher[int64] satisfies it.
type Dispatcher interface {
	Submit(v int64)
	LastSent() (int64, bool)
	Forget()
	Reset()
}

type edit struct {
	domain.PendingEdit
	timer clock.Timer
	gen   uint64
}

// Reconciler owns the pending edits of both quantities. User input and
// snapshot arrival are serialized by a single mutex.
type Reconciler struct {
	logger   *zap.Logger
	clock    clock.Clock
	failsafe time.Duration
	dispatch map[Quantity]Dispatcher

	mu       sync.Mutex
	snapshot *domain.PlaybackSnapshot
	edits    map[Quantity]*edit
	gen      uint64
	onChange func()
}

// New creates a reconciler that forwards volume and position targets to the
// given dispatchers
func New(logger *zap.Logger, clk clock.Clock, failsafe time.Duration, volume, position Dispatcher) *Reconciler {
	return &Reconciler{
		logger:   logger,
		clock:    clk,
		failsafe: failsafe,
		dispatch: map[Quantity]Dispatcher{Volume: volume, Position: position},
		edits:    make(map[Quantity]*edit),
	}
}

// OnChange registers fn to be called, outside the lock, whenever the
// display state may have changed because of an edit being created or cleared
func (r *Reconciler) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Adjust moves a quantity by delta from its currently displayed value.
// It returns the new target and false when there is nothing to adjust.
func (r *Reconciler) Adjust(q Quantity, delta int64) (int64, bool) {
	r.mu.Lock()
	base, ok := r.currentLocked(q)
	if !ok {
		r.mu.Unlock()
		return 0, false
	}
	target, changed := r.applyLocked(q, saturatingAdd(base, delta))
	notify := r.onChange
	r.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
	return target, true
}

// Set moves a quantity to an absolute value
func (r *Reconciler) Set(q Quantity, value int64) (int64, bool) {
	r.mu.Lock()
	if _, ok := r.currentLocked(q); !ok {
		r.mu.Unlock()
		return 0, false
	}
	target, changed := r.applyLocked(q, value)
	notify := r.onChange
	r.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
	return target, true
}

// ApplySnapshot records a new poll result and clears every edit the server
// has caught up with
func (r *Reconciler) ApplySnapshot(s domain.PlaybackSnapshot) {
	r.mu.Lock()
	prev := r.snapshot
	r.snapshot = &s

	changed := false
	if prev != nil && prev.NowPlayingID != s.NowPlayingID {
		if _, ok := r.edits[Position]; ok {
			r.clearLocked(Position)
			r.dispatch[Position].Reset()
			changed = true
		}
	}

	for q, e := range r.edits {
		value := snapshotValue(s, q)
		if abs(value-e.Target) <= q.tolerance() {
			r.logger.Debug("Optimistic edit confirmed",
				zap.Stringer("quantity", q),
				zap.Int64("target", e.Target))
			r.clearLocked(q)
			r.dispatch[q].Forget()
			changed = true
		}
	}
	notify := r.onChange
	r.mu.Unlock()

	if changed && notify != nil {
		notify()
	}
}

// EndInteraction drops the edit of q, e.g. when a drag is released
func (r *Reconciler) EndInteraction(q Quantity) {
	r.mu.Lock()
	_, ok := r.edits[q]
	if ok {
		r.clearLocked(q)
	}
	notify := r.onChange
	r.mu.Unlock()

	if ok && notify != nil {
		notify()
	}
}

// Pending returns the edit of q, if any. LastSent is the value the
// dispatcher last handed to the transport, which lags Target while a burst
// is being coalesced.
func (r *Reconciler) Pending(q Quantity) mo.Option[domain.PendingEdit] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.edits[q]; ok {
		pending := e.PendingEdit
		if v, sent := r.dispatch[q].LastSent(); sent {
			pending.LastSent = mo.Some(v)
		}
		return mo.Some(pending)
	}
	return mo.None[domain.PendingEdit]()
}

// Display returns the latest snapshot with pending edits applied.
// ok is false until the first snapshot arrives.
func (r *Reconciler) Display() (domain.DisplayState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snapshot == nil {
		return domain.DisplayState{}, false
	}
	state := domain.DisplayState{PlaybackSnapshot: *r.snapshot}
	if e, ok := r.edits[Volume]; ok {
		state.VolumeLevel = int(e.Target)
		state.VolumePending = true
	}
	if e, ok := r.edits[Position]; ok {
		state.PositionTicks = e.Target
		state.PositionPending = true
	}
	return state, true
}

// Reset forgets the snapshot and all edits, for a change of target
func (r *Reconciler) Reset() {
	r.mu.Lock()
	for q := range r.edits {
		r.clearLocked(q)
	}
	for _, d := range r.dispatch {
		d.Reset()
	}
	r.snapshot = nil
	r.mu.Unlock()
}

// currentLocked returns the value input is applied to: the pending target,
// or the snapshot value
func (r *Reconciler) currentLocked(q Quantity) (int64, bool) {
	if e, ok := r.edits[q]; ok {
		return e.Target, true
	}
	if r.snapshot == nil {
		return 0, false
	}
	if q == Position && !r.snapshot.HasMedia() {
		return 0, false
	}
	return snapshotValue(*r.snapshot, q), true
}

func (r *Reconciler) applyLocked(q Quantity, value int64) (int64, bool) {
	target := r.clampLocked(q, value)
	now := r.clock.Now()

	current, _ := r.currentLocked(q)
	if target == current {
		// No new value, but the input still counts as activity
		if e, ok := r.edits[q]; ok {
			r.armLocked(q, e, now)
		}
		return target, false
	}

	if old, ok := r.edits[q]; ok && old.timer != nil {
		old.timer.Stop()
	}
	e := &edit{PendingEdit: domain.PendingEdit{
		Target:    target,
		CreatedAt: now,
	}}
	r.edits[q] = e
	r.armLocked(q, e, now)
	r.dispatch[q].Submit(target)
	return target, true
}

func (r *Reconciler) armLocked(q Quantity, e *edit, now time.Time) {
	if e.timer != nil {
		e.timer.Stop()
	}
	r.gen++
	gen := r.gen
	e.gen = gen
	e.FailsafeDeadline = now.Add(r.failsafe)
	e.timer = r.clock.AfterFunc(r.failsafe, func() { r.expire(q, gen) })
}

func (r *Reconciler) expire(q Quantity, gen uint64) {
	r.mu.Lock()
	e, ok := r.edits[q]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	r.logger.Debug("Optimistic edit expired without confirmation",
		zap.Stringer("quantity", q),
		zap.Int64("target", e.Target))
	delete(r.edits, q)
	// The unconfirmed value must not block the same input from being sent again
	r.dispatch[q].Forget()
	notify := r.onChange
	r.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (r *Reconciler) clearLocked(q Quantity) {
	if e, ok := r.edits[q]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(r.edits, q)
	}
}

func (r *Reconciler) clampLocked(q Quantity, v int64) int64 {
	if v < 0 {
		v = 0
	}
	switch q {
	case Volume:
		if v > domain.MaxVolume {
			v = domain.MaxVolume
		}
	case Position:
		if r.snapshot != nil {
			if d, ok := r.snapshot.DurationTicks.Get(); ok && d > 0 && v > d {
				v = d
			}
		}
	}
	return v
}

func snapshotValue(s domain.PlaybackSnapshot, q Quantity) int64 {
	if q == Volume {
		return int64(s.VolumeLevel)
	}
	return s.PositionTicks
}

// saturatingAdd adds delta to base, sticking to the int64 limits on overflow
func saturatingAdd(base, delta int64) int64 {
	switch {
	case delta > 0 && base > math.MaxInt64-delta:
		return math.MaxInt64
	case delta < 0 && base < math.MinInt64-delta:
		return math.MinInt64
	}
	return base + delta
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
