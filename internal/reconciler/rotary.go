package reconciler

import (
	"math"
	"sync"
)

// Rotary turns raw wheel magnitudes into whole volume steps. Fractions of a
// step are carried over to the next event in the same direction; turning the
// other way discards them.
type Rotary struct {
	mu          sync.Mutex
	sensitivity float64
	carry       float64
}

// NewRotary creates an accumulator where sensitivity units of magnitude make
// one step. Non-positive sensitivities are treated as 1.
func NewRotary(sensitivity float64) *Rotary {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return &Rotary{sensitivity: sensitivity}
}

// Feed adds one wheel event and returns the number of whole steps it
// completes, negative for the decreasing direction
func (r *Rotary) Feed(magnitude float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if magnitude == 0 || math.IsNaN(magnitude) || math.IsInf(magnitude, 0) {
		return 0
	}
	if (magnitude > 0) != (r.carry > 0) && r.carry != 0 {
		r.carry = 0
	}

	total := r.carry + magnitude/r.sensitivity
	steps := math.Trunc(total)
	r.carry = total - steps
	return int(steps)
}

// Reset drops any carried fraction
func (r *Rotary) Reset() {
	r.mu.Lock()
	r.carry = 0
	r.mu.Unlock()
}
