// SPDX-License-Identifier: MIT
package sampling

import (
	"math"
	"sync/atomic"
	"time"

	"visualizer/internal/config"
	"visualizer/pkg/bitint"
)

// Sine is a synthetic analog input: a sine of fixed frequency around
// mid-scale, sampled at the instant Read is called. It needs no hardware and
// is the default source.
type Sine struct {
	freq  float64
	level atomic.Uint64 // math.Float64bits of the amplitude, fraction of full scale
	start time.Time
	now   func() time.Time
}

// NewSine creates a sine source. level is the amplitude as a fraction of full
// scale and is clamped to [0, 1].
func NewSine(freq, level float64) *Sine {
	s := &Sine{
		freq:  freq,
		start: time.Now(),
		now:   time.Now,
	}
	s.SetLevel(level)
	return s
}

// SetLevel changes the amplitude. Safe to call from any goroutine.
func (s *Sine) SetLevel(level float64) {
	level = math.Max(0, math.Min(1, level))
	s.level.Store(math.Float64bits(level))
}

// Level returns the current amplitude.
func (s *Sine) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// Read returns the 12-bit value of the signal at the current time.
func (s *Sine) Read() uint16 {
	t := s.now().Sub(s.start).Seconds()
	return bitint.FromUnit(s.Level()*math.Sin(2*math.Pi*s.freq*t), config.SampleBits)
}

// Frame is a source replaying a fixed sequence of samples, one per Read,
// wrapping at the end. Tests and the benchmark use it to feed exact frames
// through the pipeline.
type Frame struct {
	samples []uint16
	pos     int
}

// NewFrame creates a source replaying samples.
func NewFrame(samples []uint16) *Frame {
	return &Frame{samples: samples}
}

// Read returns the next sample.
func (f *Frame) Read() uint16 {
	if len(f.samples) == 0 {
		return 0
	}
	v := f.samples[f.pos]
	f.pos++
	if f.pos == len(f.samples) {
		f.pos = 0
	}
	return v
}
