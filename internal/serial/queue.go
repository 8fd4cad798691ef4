// Package serial runs asynchronous operations strictly one at a time, in
// submission order, on a dedicated worker goroutine.
package serial

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted to a closed queue
var ErrClosed = errors.New("queue closed")

// Op is one unit of queued work. The context is cancelled when the queue is
// closed with work still pending.
type Op func(ctx context.Context)

// Queue executes submitted operations FIFO, never two at once
type Queue struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue creates a queue and starts its worker
func NewQueue() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go q.run()
	return q
}

// Enqueue appends op to the queue without waiting for it to run
func (q *Queue) Enqueue(op Op) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.ops = append(q.ops, op)
	// wake is closed under mu, so the send must happen under mu as well
	select {
	case q.wake <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return nil
}

// Flush blocks until every operation enqueued before the call has completed
func (q *Queue) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	if err := q.Enqueue(func(context.Context) { close(flushed) }); err != nil {
		return err
	}

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for the pending operations to drain.
// If ctx expires first, the operations still running or queued see a
// cancelled context.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.wake)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		op, ok := q.next()
		if !ok {
			return
		}
		op(q.ctx)
	}
}

// next pops the oldest operation, sleeping while the queue is empty.
// It reports false once the queue is closed and drained.
func (q *Queue) next() (Op, bool) {
	for {
		q.mu.Lock()
		if len(q.ops) > 0 {
			op := q.ops[0]
			q.ops[0] = nil
			q.ops = q.ops[1:]
			q.mu.Unlock()
			return op, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}
		<-q.wake
	}
}
