// Package throttle implements a leading-edge throttle with a guaranteed
// trailing flush, used to turn bursts of "set X to v" requests into a
// bounded stream of outbound commands.
package throttle

import (
	"sync"
	"time"

	"github.com/genricoloni/synremote/internal/clock"
)

// Dispatcher coalesces requests for one quantity.
//
// The first request of a burst is sent immediately and arms a timer. Requests
// arriving while the timer is armed only replace the pending value. When the
// timer fires the pending value is sent (and the timer re-armed) unless it
// equals the last sent value, in which case the dispatcher goes idle.
type Dispatcher[T comparable] struct {
	clock    clock.Clock
	interval time.Duration
	send     func(T)

	mu         sync.Mutex
	timer      clock.Timer
	generation uint64
	armed      bool
	pending    T
	hasPending bool
	last       T
	hasLast    bool
	stopped    bool
}

// New creates a dispatcher that calls send at most once per interval.
// send is invoked while the dispatcher's lock is held, which is what keeps
// sends ordered; it must not block or call back into the dispatcher.
func New[T comparable](clk clock.Clock, interval time.Duration, send func(T)) *Dispatcher[T] {
	return &Dispatcher[T]{
		clock:    clk,
		interval: interval,
		send:     send,
	}
}

// Submit requests that v be sent
func (d *Dispatcher[T]) Submit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.armed {
		d.pending = v
		d.hasPending = true
		return
	}

	if d.hasLast && d.last == v {
		return
	}
	d.emitLocked(v)
}

// LastSent returns the most recently sent value
func (d *Dispatcher[T]) LastSent() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.hasLast
}

// Forget clears the last sent value so an equal value may be sent again.
// Used once the remote side has confirmed the value or rejected it.
func (d *Dispatcher[T]) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	d.last = zero
	d.hasLast = false
}

// Stop cancels the timer and drops any pending value; later submits are ignored
func (d *Dispatcher[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.disarmLocked()
}

// Reset cancels the timer, drops any pending value and forgets the last sent
// value, leaving the dispatcher idle and usable
func (d *Dispatcher[T]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.disarmLocked()
	var zero T
	d.last = zero
	d.hasLast = false
}

func (d *Dispatcher[T]) emitLocked(v T) {
	d.last = v
	d.hasLast = true
	d.hasPending = false
	d.send(v)
	d.armLocked()
}

func (d *Dispatcher[T]) armLocked() {
	d.armed = true
	d.generation++
	gen := d.generation
	d.timer = d.clock.AfterFunc(d.interval, func() { d.flush(gen) })
}

func (d *Dispatcher[T]) disarmLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
	d.armed = false
	var zero T
	d.pending = zero
	d.hasPending = false
}

// flush is the timer callback; gen identifies the timer so that a callback
// racing with Stop or Reset cannot act on a newer timer's behalf
func (d *Dispatcher[T]) flush(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.generation != gen {
		return
	}

	if d.hasPending && (!d.hasLast || d.pending != d.last) {
		d.emitLocked(d.pending)
		return
	}

	d.timer = nil
	d.armed = false
	d.hasPending = false
}
