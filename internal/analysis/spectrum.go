// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"visualizer/internal/log"
	"visualizer/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting a window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
	Rectangular
)

var windowNames = [...]string{
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if w >= 0 && int(w) < len(windowNames) {
		return windowNames[w]
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// Pre-allocated buffers for the transform.
type spectrumWorkspace struct {
	seq       []complex128 // Windowed input.
	coeffs    []complex128 // Transform output.
	magnitude []float64    // |coeffs[k]|, returned to the caller.
	window    []float64    // Pre-calculated window coefficients.
}

// Spectrum turns one frame of samples into per-bin magnitudes: optional DC
// removal, windowing, a forward complex FFT and the Euclidean norm of every
// bin. The magnitude slice covers all N bins; for real input bins above N/2
// mirror the lower half.
//
// A Spectrum is owned by the frame loop and is not safe for concurrent use.
type Spectrum struct {
	fft        *fourier.CmplxFFT
	size       int
	sampleRate float64
	windowType WindowFunc
	dcBlock    bool
	workspace  spectrumWorkspace
}

// NewSpectrum creates a transform of size points (power of 2) for signals
// sampled at sampleRate Hz.
func NewSpectrum(size int, sampleRate float64, windowType WindowFunc, dcBlock bool) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transform size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if windowType < 0 || int(windowType) >= len(windowNames) {
		return nil, fmt.Errorf("unknown window function %d", int(windowType))
	}

	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	log.Infof("analysis: spectrum size %d, sample rate %.1f Hz, window %s, dc block %v",
		size, sampleRate, windowType, dcBlock)

	return &Spectrum{
		fft:        fourier.NewCmplxFFT(size),
		size:       size,
		sampleRate: sampleRate,
		windowType: windowType,
		dcBlock:    dcBlock,
		workspace: spectrumWorkspace{
			seq:       make([]complex128, size),
			coeffs:    make([]complex128, size),
			magnitude: make([]float64, size),
			window:    coeffs,
		},
	}, nil
}

// Transform computes the magnitudes of one frame. re and im must both have
// Size() entries. The returned slice is reused by the next call.
//
// HOT PATH: no allocations.
func (s *Spectrum) Transform(re, im []float64) []float64 {
	ws := &s.workspace

	// --- 1. DC removal ---
	mean := 0.0
	if s.dcBlock {
		for _, v := range re[:s.size] {
			mean += v
		}
		mean /= float64(s.size)
	}

	// --- 2. Windowing ---
	for i := range ws.seq {
		w := ws.window[i]
		ws.seq[i] = complex((re[i]-mean)*w, im[i]*w)
	}

	// --- 3. Transform ---
	s.fft.Coefficients(ws.coeffs, ws.seq)

	// --- 4. Magnitudes ---
	for i, c := range ws.coeffs {
		ws.magnitude[i] = cmplx.Abs(c)
	}
	return ws.magnitude
}

// Size returns the number of points of the transform.
func (s *Spectrum) Size() int {
	return s.size
}

// SampleRate returns the sample rate the transform was configured with (Hz).
func (s *Spectrum) SampleRate() float64 {
	return s.sampleRate
}

// FrequencyForBin returns the centre frequency (Hz) of bin k. Bins above N/2
// report the frequency of the negative bin they mirror, as a positive value.
func (s *Spectrum) FrequencyForBin(k int) float64 {
	if k < 0 || k >= s.size {
		return 0
	}
	if k > s.size/2 {
		k = s.size - k
	}
	return float64(k) * s.sampleRate / float64(s.size)
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Hamming and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming", "":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Hamming, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. The gonum window
// functions scale their argument in place, so coeffs starts out as all ones.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Rectangular:
		window.Rectangular(coeffs)
	}
}
