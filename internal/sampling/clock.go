// SPDX-License-Identifier: MIT
package sampling

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// Source produces one 12-bit sample per call. Implementations must not block:
// the clock calls Read exactly when a slot's deadline has been reached.
type Source interface {
	Read() uint16
}

// Clock schedules the reads of one buffer fill. Slot i may not be read before
// start+(i+1)*period, where start is taken once when the fill begins. Every
// deadline is an absolute offset from start, so a late slot never pushes the
// following ones back and the average rate stays exact.
type Clock struct {
	period float64 // Nanoseconds, not truncated
	now    func() time.Time
	yield  func()

	overruns atomic.Uint64 // Slots whose deadline had passed before the wait began
	fills    atomic.Uint64
}

// ClockOption customises a Clock.
type ClockOption func(*Clock)

// WithNow replaces the time source.
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) { c.now = now }
}

// WithYield replaces the function called while waiting for a deadline.
func WithYield(yield func()) ClockOption {
	return func(c *Clock) { c.yield = yield }
}

// NewClock creates a clock for the given sampling frequency in Hz.
func NewClock(sampleRate float64, opts ...ClockOption) (*Clock, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %g", sampleRate)
	}
	period := float64(time.Second) / sampleRate
	if period < 1 {
		return nil, fmt.Errorf("sample rate %g too high for the clock resolution", sampleRate)
	}

	c := &Clock{
		period: period,
		now:    time.Now,
		yield:  runtime.Gosched,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Period returns the time between two slots, truncated to the nanosecond.
func (c *Clock) Period() time.Duration {
	return time.Duration(c.period)
}

// Deadline returns the earliest time slot i of a fill started at start may be
// read. The offset is computed from the exact period so that rounding does
// not accumulate over the slots of a fill.
func (c *Clock) Deadline(start time.Time, i int) time.Time {
	return start.Add(time.Duration(float64(i+1) * c.period))
}

// Fill reads len(dst) samples from src into dst, one per slot. It returns the
// number of slots of this fill that overran their deadline.
//
// HOT PATH: no allocations.
func (c *Clock) Fill(src Source, dst []float64) int {
	start := c.now()
	late := 0
	for i := range dst {
		deadline := c.Deadline(start, i)
		if c.now().After(deadline) {
			late++
		} else {
			for c.now().Before(deadline) {
				c.yield()
			}
		}
		dst[i] = float64(src.Read())
	}
	c.overruns.Add(uint64(late))
	c.fills.Add(1)
	return late
}

// Overruns returns the number of late slots since the clock was created.
func (c *Clock) Overruns() uint64 {
	return c.overruns.Load()
}

// Fills returns the number of completed buffer fills.
func (c *Clock) Fills() uint64 {
	return c.fills.Load()
}
