// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/sampling"
	"visualizer/pkg/bitint"

	"github.com/gordonklaus/portaudio"
)

const (
	captureFramesPerBuffer = 256
	captureRingSize        = 4096 // Power of 2
)

// Capture is a live analog input backed by a PortAudio input stream. The
// stream callback pushes mono samples into a lock-free ring; Read consumes
// them in order as 12-bit values, one per clock slot.
type Capture struct {
	device  *portaudio.DeviceInfo
	latency time.Duration
	rate    float64
	stream  *portaudio.Stream

	ring   [captureRingSize]atomic.Uint32
	write  atomic.Uint64 // Samples pushed so far
	read   uint64        // Owned by the reader
	maxLag uint64
	last   uint16
}

var _ sampling.Source = (*Capture)(nil)

// NewCapture selects an input device. PortAudio must be initialised.
func NewCapture(deviceID int, sampleRate float64, lowLatency bool) (*Capture, error) {
	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, err
	}
	c := newCapture(sampleRate)
	c.device = device
	if lowLatency {
		c.latency = device.DefaultLowInputLatency
	} else {
		c.latency = device.DefaultHighInputLatency
	}
	return c, nil
}

func newCapture(sampleRate float64) *Capture {
	return &Capture{
		rate:   sampleRate,
		maxLag: captureFramesPerBuffer * 2,
		last:   bitint.Mid(config.SampleBits),
	}
}

// Start opens and starts the input stream.
func (c *Capture) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   c.device,
			Channels: 1,
			Latency:  c.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: captureFramesPerBuffer,
		SampleRate:      c.rate,
	}

	stream, err := portaudio.OpenStream(params, c.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream on %q: %w", c.device.Name, err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	log.Infof("Capture: %s at %.0f Hz (latency %s)", c.device.Name, c.rate, c.latency)
	return nil
}

// Stop stops and closes the input stream.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil
	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - No dynamic allocations
func (c *Capture) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	c.push(in)
}

func (c *Capture) push(in []float32) {
	w := c.write.Load()
	for _, s := range in {
		c.ring[w&(captureRingSize-1)].Store(uint32(bitint.FromUnit(float64(s), config.SampleBits)))
		w++
	}
	c.write.Store(w)
}

// Read returns the next captured sample. When the reader has fallen more than
// two callback buffers behind it skips ahead; when it has caught up it repeats
// the last sample, as an analog pin would.
func (c *Capture) Read() uint16 {
	w := c.write.Load()
	if w-c.read > c.maxLag {
		c.read = w - c.maxLag
	}
	if c.read == w {
		return c.last
	}
	c.last = uint16(c.ring[c.read&(captureRingSize-1)].Load())
	c.read++
	return c.last
}
