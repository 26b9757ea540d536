// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestNewSmoother_Invalid(t *testing.T) {
	t.Parallel()
	for _, alpha := range []float64{-0.1, 1, 1.5} {
		if _, err := NewSmoother(4, alpha); err == nil {
			t.Errorf("NewSmoother(4, %g) expected error", alpha)
		}
	}
	if _, err := NewSmoother(0, 0.9); err == nil {
		t.Error("NewSmoother(0, 0.9) expected error")
	}
}

func TestSmoother_FirstFrame(t *testing.T) {
	t.Parallel()
	alpha := 0.90
	s, err := NewSmoother(2, alpha)
	if err != nil {
		t.Fatal(err)
	}

	got := s.Update([]float64{80, 0})
	want := (1 - alpha) * 80
	if got[0] != want || got[1] != 0 {
		t.Errorf("first frame = %v, expected [%g 0]", got, want)
	}
	// Bars draw the integer part: a full-height step shows 7 pixels at first.
	if int(got[0]) != 7 {
		t.Errorf("int(%g) = %d, expected 7", got[0], int(got[0]))
	}
}

func TestSmoother_ConvergesAndDecays(t *testing.T) {
	t.Parallel()
	s, _ := NewSmoother(1, 0.90)
	in := []float64{80}

	prev := 0.0
	for range 200 {
		cur := s.Update(in)[0]
		if cur < prev {
			t.Fatalf("smoothed value fell from %g to %g under constant input", prev, cur)
		}
		prev = cur
	}
	if math.Abs(prev-80) > 1e-6 {
		t.Errorf("after 200 frames value = %g, expected to converge on 80", prev)
	}

	in[0] = 0
	decayed := s.Update(in)[0]
	if want := 0.90 * prev; math.Abs(decayed-want) > 1e-12 {
		t.Errorf("decay step = %g, expected %g", decayed, want)
	}
}

func TestSmoother_SilenceDecaysToZero(t *testing.T) {
	t.Parallel()
	s, _ := NewSmoother(3, 0.90)
	s.Update([]float64{80, 35.5, 0.25})

	silence := make([]float64, 3)
	prev := append([]float64(nil), s.Values()...)
	for frame := range 400 {
		cur := s.Update(silence)
		for i := range cur {
			if cur[i] < 0 || cur[i] > prev[i] {
				t.Fatalf("frame %d band %d: %g after %g, expected 0 <= value <= previous", frame, i, cur[i], prev[i])
			}
		}
		copy(prev, cur)
	}
	for i, v := range prev {
		if v > 1e-9 {
			t.Errorf("band %d = %g after 400 silent frames, expected it to reach 0", i, v)
		}
	}
}

func TestSmoother_Reset(t *testing.T) {
	t.Parallel()
	s, _ := NewSmoother(3, 0.5)
	s.Update([]float64{1, 2, 3})
	s.Reset()
	for i, v := range s.Values() {
		if v != 0 {
			t.Errorf("Values()[%d] = %g after Reset, expected 0", i, v)
		}
	}
}

func TestSmoother_NoAllocations(t *testing.T) {
	s, _ := NewSmoother(64, 0.9)
	in := make([]float64, 64)
	allocs := testing.AllocsPerRun(100, func() {
		s.Update(in)
	})
	if allocs != 0 {
		t.Errorf("Update allocates %.1f times per call, expected 0", allocs)
	}
}
