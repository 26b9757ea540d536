// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"visualizer/pkg/utils"

	"github.com/mjibson/go-dsp/fft"
	dspwindow "github.com/mjibson/go-dsp/window"
)

const (
	testSize       = 64
	testSampleRate = 44100.0
)

func toFrame(samples []uint16) (re, im []float64) {
	re = make([]float64, len(samples))
	im = make([]float64, len(samples))
	for i, s := range samples {
		re[i] = float64(s)
	}
	return re, im
}

func newTestSpectrum(t testing.TB, dcBlock bool) *Spectrum {
	t.Helper()
	s, err := NewSpectrum(testSize, testSampleRate, Hamming, dcBlock)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	return s
}

func TestNewSpectrum_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		size   int
		rate   float64
		window WindowFunc
	}{
		{"size not power of two", 48, testSampleRate, Hamming},
		{"zero size", 0, testSampleRate, Hamming},
		{"zero rate", testSize, 0, Hamming},
		{"unknown window", testSize, testSampleRate, WindowFunc(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSpectrum(tt.size, tt.rate, tt.window, false); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseWindowFunc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"Hamming", Hamming, false},
		{"hanning", Hann, false},
		{" blackman ", Blackman, false},
		{"", Hamming, false},
		{"none", Rectangular, false},
		{"kaiser", Hamming, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.name)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) = %v, %v; expected %v, error %v", tt.name, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestSpectrum_MatchesReferenceFFT(t *testing.T) {
	t.Parallel()
	s := newTestSpectrum(t, false)
	samples := utils.Chord(testSize, testSampleRate)
	re, im := toFrame(samples)

	got := s.Transform(re, im)

	ref := make([]float64, testSize)
	copy(ref, re)
	dspwindow.Apply(ref, dspwindow.Hamming)
	want := fft.FFTReal(ref)

	for k := range want {
		w := cmplx.Abs(want[k])
		if math.Abs(got[k]-w) > 1e-6*math.Max(1, w) {
			t.Errorf("bin %d: magnitude %g, reference %g", k, got[k], w)
		}
	}
}

func TestSpectrum_MirrorsRealInput(t *testing.T) {
	t.Parallel()
	s := newTestSpectrum(t, false)
	re, im := toFrame(utils.BinSine(testSize, 5, 700))
	mag := s.Transform(re, im)

	for k := 1; k < testSize/2; k++ {
		if math.Abs(mag[k]-mag[testSize-k]) > 1e-6*math.Max(1, mag[k]) {
			t.Errorf("bin %d (%g) does not mirror bin %d (%g)", k, mag[k], testSize-k, mag[testSize-k])
		}
	}
	if peak := utils.FindPeakBin(mag, 1, testSize/2); peak != 5 {
		t.Errorf("peak at bin %d, expected 5", peak)
	}
}

func TestSpectrum_DCBlock(t *testing.T) {
	t.Parallel()
	re, im := toFrame(utils.Constant(testSize, 2048))

	blocked := newTestSpectrum(t, true).Transform(re, im)
	for k, m := range blocked {
		if m != 0 {
			t.Errorf("bin %d = %g with dc block, expected 0", k, m)
		}
	}

	raw := newTestSpectrum(t, false).Transform(re, im)
	// The symmetric 64-point Hamming window sums to 0.54*64 - 0.46 = 34.1 and
	// the DC bin carries 2048 times that.
	if raw[0] < 2048*34 || raw[0] > 2048*35 {
		t.Errorf("DC bin = %g without dc block, expected about %g", raw[0], 2048*34.1)
	}
}

func TestSpectrum_Deterministic(t *testing.T) {
	t.Parallel()
	s := newTestSpectrum(t, false)
	re, im := toFrame(utils.Chord(testSize, testSampleRate))

	first := append([]float64(nil), s.Transform(re, im)...)
	// An unrelated frame in between must not leak into the next result.
	s.Transform(toFrame(utils.BinSine(testSize, 9, 1500)))
	second := s.Transform(re, im)

	for k := range first {
		if first[k] != second[k] {
			t.Fatalf("bin %d differs between identical frames: %g != %g", k, first[k], second[k])
		}
	}
}

func TestSpectrum_FrequencyForBin(t *testing.T) {
	t.Parallel()
	s := newTestSpectrum(t, false)
	res := testSampleRate / testSize

	tests := []struct {
		bin  int
		want float64
	}{
		{0, 0},
		{1, res},
		{32, 32 * res},
		{48, 16 * res}, // Mirror of bin 16
		{-1, 0},
		{64, 0},
	}
	for _, tt := range tests {
		if got := s.FrequencyForBin(tt.bin); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("FrequencyForBin(%d) = %g, expected %g", tt.bin, got, tt.want)
		}
	}
}

func TestSpectrum_NoAllocations(t *testing.T) {
	s := newTestSpectrum(t, true)
	re, im := toFrame(utils.Chord(testSize, testSampleRate))

	allocs := testing.AllocsPerRun(100, func() {
		s.Transform(re, im)
	})
	if allocs != 0 {
		t.Errorf("Transform allocates %.1f times per call, expected 0", allocs)
	}
}

func BenchmarkSpectrum_Transform(b *testing.B) {
	s := newTestSpectrum(b, false)
	re, im := toFrame(utils.Chord(testSize, testSampleRate))

	b.ReportAllocs()
	for b.Loop() {
		s.Transform(re, im)
	}
}
