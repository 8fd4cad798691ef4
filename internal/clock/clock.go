// Package clock abstracts wall time and timers so that time-driven components
// (throttles, failsafes, pollers) can be driven deterministically in tests.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop cancels the timer. It returns false if the callback already ran
	// or the timer was already stopped.
	Stop() bool
}

// Clock provides the current time and one-shot timers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the Clock backed by the time package
type Real struct{}

// New returns the system clock
func New() Clock {
	return Real{}
}

// Now returns time.Now()
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f in its own goroutine after d
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
