// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"reflect"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// A "hill" with its peak at testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestBinSine(t *testing.T) {
	frame := BinSine(64, 16, 500)
	if len(frame) != 64 {
		t.Fatalf("len = %d, expected 64", len(frame))
	}
	// Bin 16 of 64 is a quarter of the sample rate: 0, +A, 0, -A, ...
	want := []uint16{2048, 2548, 2048, 1548}
	for i, w := range want {
		if frame[i] != w {
			t.Errorf("frame[%d] = %d, expected %d", i, frame[i], w)
		}
	}
}

func TestGeneratorsStayIn12Bits(t *testing.T) {
	frames := map[string][]uint16{
		"sine":  Sine(testSize, testSampleRate, 440, 5000),
		"chord": Chord(testSize, testSampleRate),
		"clip":  BinSine(64, 3, 1e6),
	}
	for name, frame := range frames {
		for i, v := range frame {
			if v > 4095 {
				t.Errorf("%s[%d] = %d, outside 12 bits", name, i, v)
			}
		}
	}
}

func TestConstant(t *testing.T) {
	for i, v := range Constant(8, 2048) {
		if v != 2048 {
			t.Errorf("Constant[%d] = %d", i, v)
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		expected   int
	}{
		{"Full range", 0, testSize - 1, testSize / 4},
		{"Negative start", -10, testSize, testSize / 4},
		{"Past the peak", testSize/4 + 10, testSize - 1, testSize/4 + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(testMagnitudes, tt.start, tt.end); got != tt.expected {
				t.Errorf("FindPeakBin(%d, %d) = %d, expected %d", tt.start, tt.end, got, tt.expected)
			}
		})
	}

	if got := FindPeakBin(nil, 0, 10); got != 0 {
		t.Errorf("FindPeakBin(nil) = %d, expected 0", got)
	}
}

func TestNonZero(t *testing.T) {
	if got := NonZero([]float64{0, 1, 0, 0.5}); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("NonZero = %v, expected [1 3]", got)
	}
	if got := NonZero(make([]float64, 4)); got != nil {
		t.Errorf("NonZero(zeros) = %v, expected nil", got)
	}
}
