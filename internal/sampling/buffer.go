// SPDX-License-Identifier: MIT
package sampling

import (
	"fmt"

	"visualizer/pkg/bitint"
)

// Buffer holds one frame of samples as the real and imaginary parts of the
// transform input. It is allocated once and reused for every frame.
type Buffer struct {
	Real []float64
	Imag []float64
}

// NewBuffer allocates a buffer of n samples. n must be a power of 2.
func NewBuffer(n int) (*Buffer, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("buffer size must be a power of 2, got %d", n)
	}
	return &Buffer{
		Real: make([]float64, n),
		Imag: make([]float64, n),
	}, nil
}

// Len returns the number of samples in the buffer.
func (b *Buffer) Len() int {
	return len(b.Real)
}

// Acquire fills the buffer with one frame from src, paced by clock, and zeroes
// the imaginary part. It returns the number of late slots.
//
// HOT PATH: no allocations.
func (b *Buffer) Acquire(clock *Clock, src Source) int {
	late := clock.Fill(src, b.Real)
	clear(b.Imag)
	return late
}
