// SPDX-License-Identifier: MIT
package utils

import "math"

// Signal generators for tests. All of them produce 12-bit samples around the
// 2048 mid-scale line, the format of the analog input.

const (
	midScale = 2048
	fullMax  = 4095
)

// Constant returns a frame holding the same sample everywhere.
func Constant(size int, value uint16) []uint16 {
	frame := make([]uint16, size)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

// BinSine returns a sine of the given amplitude, in sample units, whose
// frequency sits exactly on transform bin k of a size-point frame.
func BinSine(size, k int, amplitude float64) []uint16 {
	frame := make([]uint16, size)
	for n := range frame {
		v := math.Round(midScale + amplitude*math.Sin(2*math.Pi*float64(k)*float64(n)/float64(size)))
		frame[n] = clamp12(v)
	}
	return frame
}

// Sine returns size samples of a sine at frequency Hz sampled at sampleRate.
func Sine(size int, sampleRate, frequency, amplitude float64) []uint16 {
	frame := make([]uint16, size)
	for n := range frame {
		t := float64(n) / sampleRate
		frame[n] = clamp12(math.Round(midScale + amplitude*math.Sin(2*math.Pi*frequency*t)))
	}
	return frame
}

// Chord returns a 440Hz fundamental with two harmonics.
func Chord(size int, sampleRate float64) []uint16 {
	frame := make([]uint16, size)
	for n := range frame {
		t := float64(n) / sampleRate
		v := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		frame[n] = clamp12(math.Round(midScale + v*0.9*(midScale-1)))
	}
	return frame
}

func clamp12(v float64) uint16 {
	return uint16(math.Max(0, math.Min(fullMax, v)))
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)

	peakBin := startBin
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > magnitudes[peakBin] {
			peakBin = bin
		}
	}
	return peakBin
}

// NonZero returns the indexes of the non-zero entries of values.
func NonZero(values []float64) []int {
	var idx []int
	for i, v := range values {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
