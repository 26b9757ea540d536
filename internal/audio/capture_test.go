// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"testing"

	"visualizer/internal/config"
	"visualizer/pkg/bitint"
)

func TestCapture_ReadInOrder(t *testing.T) {
	t.Parallel()
	c := newCapture(config.DefaultSampleRate)

	mid := bitint.Mid(config.SampleBits)
	if got := c.Read(); got != mid {
		t.Errorf("empty capture = %d; expected mid-scale %d", got, mid)
	}

	c.push([]float32{-1, 0, 1, 0.5})
	want := []uint16{0, 2048, 4095, 3071}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Errorf("sample %d = %d; expected %d", i, got, w)
		}
	}

	// Caught up: the last value holds.
	for range 3 {
		if got := c.Read(); got != 3071 {
			t.Errorf("held sample = %d; expected 3071", got)
		}
	}
}

func TestCapture_SkipsAheadWhenBehind(t *testing.T) {
	t.Parallel()
	c := newCapture(config.DefaultSampleRate)

	in := make([]float32, captureRingSize/2)
	for i := range in {
		in[i] = -1
	}
	in[len(in)-int(c.maxLag)] = 1
	c.push(in)

	// Only the newest maxLag samples are still readable.
	if got := c.Read(); got != 4095 {
		t.Errorf("first read after overflow = %d; expected the oldest kept sample 4095", got)
	}
	n := 1
	for c.read != c.write.Load() {
		c.Read()
		n++
	}
	if n != int(c.maxLag) {
		t.Errorf("read %d samples; expected %d", n, c.maxLag)
	}
}

func TestCapture_ConcurrentPush(t *testing.T) {
	t.Parallel()
	c := newCapture(config.DefaultSampleRate)
	buf := make([]float32, captureFramesPerBuffer)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 64 {
			c.push(buf)
		}
	}()
	for range 64 * captureFramesPerBuffer {
		if v := c.Read(); v > config.MaxSample {
			t.Fatalf("read %d outside the 12-bit range", v)
		}
	}
	wg.Wait()
}

func TestCapture_PushNoAllocs(t *testing.T) {
	c := newCapture(config.DefaultSampleRate)
	in := make([]float32, captureFramesPerBuffer)
	allocs := testing.AllocsPerRun(100, func() {
		c.push(in)
		for range in {
			c.Read()
		}
	})
	if allocs > 0 {
		t.Errorf("push/Read allocated: got %.1f allocs, want 0", allocs)
	}
}

func BenchmarkCapturePush(b *testing.B) {
	c := newCapture(config.DefaultSampleRate)
	in := make([]float32, captureFramesPerBuffer)
	b.ReportAllocs()
	for b.Loop() {
		c.push(in)
	}
}
