// SPDX-License-Identifier: MIT
package analysis

// Transformer turns one frame of samples into bin magnitudes. Implementations
// run on the frame loop and must not allocate.
type Transformer interface {
	Transform(re, im []float64) []float64
	Size() int
}

// BandShaper turns bin magnitudes into one bar height per band for the given
// sink volume.
type BandShaper interface {
	Aggregate(mag []float64, volume int, out []float64)
	NumBands() int
}

// Compile-time checks for interface implementations.
var _ Transformer = (*Spectrum)(nil)
var _ BandShaper = (*Aggregator)(nil)
