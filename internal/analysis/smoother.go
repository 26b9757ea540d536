// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// Smoother is a per-band exponential moving average:
//
//	s[i] = alpha*s[i] + (1-alpha)*x[i]
//
// State starts at zero and persists across frames.
type Smoother struct {
	alpha float64
	state []float64
}

// NewSmoother creates a smoother for n bands. alpha is the weight of the
// previous frame and must lie in [0, 1).
func NewSmoother(n int, alpha float64) (*Smoother, error) {
	if n <= 0 {
		return nil, fmt.Errorf("smoother needs at least one band, got %d", n)
	}
	if alpha < 0 || alpha >= 1 {
		return nil, fmt.Errorf("smoothing factor %g outside [0, 1)", alpha)
	}
	return &Smoother{alpha: alpha, state: make([]float64, n)}, nil
}

// Update folds one frame of values into the state and returns it. The
// returned slice is the smoother's own state; callers must not modify it.
//
// HOT PATH: no allocations.
func (s *Smoother) Update(values []float64) []float64 {
	for i := range s.state {
		s.state[i] = s.alpha*s.state[i] + (1-s.alpha)*values[i]
	}
	return s.state
}

// Values returns the current state without changing it.
func (s *Smoother) Values() []float64 {
	return s.state
}

// Reset zeroes the state.
func (s *Smoother) Reset() {
	clear(s.state)
}
