// SPDX-License-Identifier: MIT
/*
Package audio runs the visualizer's frame loop:
- Paced acquisition of one frame of 12-bit samples
- Windowed FFT and band aggregation with volume compensation
- Temporal smoothing and bar rendering, gated by the playback state
- Optional WAV recording of every acquired frame

Thread Safety:
- One goroutine runs the loop and owns every pipeline buffer
- Sink state is read once per frame from a lock-free snapshot
- Published bar heights are copied out under a read lock
- Buffers are pre-allocated to avoid GC in the hot path
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"visualizer/internal/analysis"
	"visualizer/internal/config"
	"visualizer/internal/log"
	"visualizer/internal/render"
	"visualizer/internal/sampling"
	"visualizer/internal/sink"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FrameResult tells what a frame did after acquisition and transform.
type FrameResult int

const (
	// FrameIdle: no sink connected or no track metadata; nothing drawn.
	FrameIdle FrameResult = iota
	// FrameFrozen: the scene was drawn but the playback gate held the bars back.
	FrameFrozen
	// FrameRendered: the scene and the bars were drawn.
	FrameRendered
)

var resultNames = [...]string{"idle", "frozen", "rendered"}

func (r FrameResult) String() string {
	if r >= 0 && int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("FrameResult(%d)", int(r))
}

// Stats are the loop counters.
type Stats struct {
	Frames   uint64 // Frames acquired
	Rendered uint64 // Frames with bars drawn
	Frozen   uint64 // Frames held back by the playback gate
	Overruns uint64 // Sampling deadlines already passed when reached
}

// Option customises an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	clock []sampling.ClockOption
	now   func() time.Time
}

// WithClockOptions passes options to the sampling clock.
func WithClockOptions(opts ...sampling.ClockOption) Option {
	return func(o *engineOptions) { o.clock = append(o.clock, opts...) }
}

// WithNow replaces the time source of the scene animation.
func WithNow(now func() time.Time) Option {
	return func(o *engineOptions) { o.now = now }
}

type Engine struct {
	// Core configuration and state.
	cfg     config.PipelineConfig
	state   *sink.State
	surface render.Surface
	width   int
	height  int
	now     func() time.Time

	// Acquisition.
	clock  *sampling.Clock
	source sampling.Source
	buffer *sampling.Buffer

	// Analysis.
	spectrum analysis.Transformer
	shaper   analysis.BandShaper
	smoother *analysis.Smoother
	bands    []float64

	// Rendering.
	gate          PlaybackGate
	bars          *render.BarRenderer
	scene         *render.Scene
	screenCleared bool

	// Published bar heights for the network mirrors.
	mu        sync.RWMutex
	published []float64

	frames   atomic.Uint64
	rendered atomic.Uint64

	// Recording state and buffers.
	recording  atomic.Bool
	recordBits int
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
}

// NewEngine builds the pipeline for cfg. src provides the samples, surface
// shows the frames and state is the sink the loop reads every frame.
func NewEngine(cfg *config.Config, src sampling.Source, surface render.Surface, state *sink.State, opts ...Option) (*Engine, error) {
	if src == nil || surface == nil || state == nil {
		return nil, errors.New("engine requires a source, a surface and a sink state")
	}
	o := engineOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	p := cfg.Pipeline

	clock, err := sampling.NewClock(p.SampleRate, o.clock...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampling clock: %w", err)
	}
	buffer, err := sampling.NewBuffer(p.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to create signal buffer: %w", err)
	}

	windowType, err := analysis.ParseWindowFunc(p.Window)
	if err != nil {
		return nil, err
	}
	spectrum, err := analysis.NewSpectrum(p.Samples, p.SampleRate, windowType, p.DCBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to create spectrum: %w", err)
	}

	table, err := analysis.NewBandTable(p.Edges(), p.NumBars)
	if err != nil {
		return nil, fmt.Errorf("invalid band table: %w", err)
	}
	aggregator, err := analysis.NewAggregator(table, analysis.AggregatorConfig{
		BaseThreshold:  p.BaseThreshold,
		ThresholdDecay: p.ThresholdDecay,
		MaxHeight:      p.MaxBarHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create band aggregator: %w", err)
	}
	smoother, err := analysis.NewSmoother(p.NumBars, p.SmoothingFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to create smoother: %w", err)
	}

	bars, err := render.NewBarRenderer(int(p.MaxBarHeight))
	if err != nil {
		return nil, err
	}
	w, h := surface.Size()

	e := &Engine{
		cfg:        p,
		state:      state,
		surface:    surface,
		width:      w,
		height:     h,
		now:        o.now,
		clock:      clock,
		source:     src,
		buffer:     buffer,
		spectrum:   spectrum,
		shaper:     aggregator,
		smoother:   smoother,
		bands:      make([]float64, p.NumBars),
		bars:       bars,
		scene:      render.NewScene(w, h, o.now()),
		published:  make([]float64, p.NumBars),
		recordBits: cfg.Recording.BitDepth,
	}
	log.Infof("Engine: %d samples at %.0f Hz, %d bars, %dx%d surface", p.Samples, p.SampleRate, p.NumBars, w, h)
	return e, nil
}

// Step runs one frame. Errors from the surface other than render.ErrClosed
// are logged and the frame counts as drawn.
//
// HOT PATH: no allocations when the surface draws no text.
func (e *Engine) Step() (FrameResult, error) {
	frame := e.frames.Add(1)

	// --- 1. Acquisition ---
	if late := e.buffer.Acquire(e.clock, e.source); late > 0 {
		log.Debugf("Engine: frame %d missed %d sampling deadline(s)", frame, late)
	}
	e.recordFrame(e.buffer.Real)

	// --- 2. Transform ---
	mag := e.spectrum.Transform(e.buffer.Real, e.buffer.Imag)

	// --- 3. Connection gate ---
	snap := e.state.Snapshot()
	if !snap.Connected || !snap.HasMetadata {
		e.setBacklight(false)
		if e.screenCleared {
			return FrameIdle, nil
		}
		e.surface.FillRect(0, 0, e.width, e.height, render.DeepNavy)
		e.screenCleared = true
		return FrameIdle, e.present()
	}
	e.setBacklight(true)
	e.screenCleared = false

	// --- 4. Scene and bars ---
	e.scene.Backdrop(e.surface, snap, e.now())

	result := FrameFrozen
	if e.gate.Open(snap.Playback) {
		e.shaper.Aggregate(mag, snap.Volume, e.bands)
		smoothed := e.smoother.Update(e.bands)
		e.bars.Draw(e.surface, smoothed)
		e.publish(smoothed)
		e.rendered.Add(1)
		result = FrameRendered
	}

	e.scene.Border(e.surface)
	return result, e.present()
}

func (e *Engine) present() error {
	err := e.surface.Present()
	if err == nil || errors.Is(err, render.ErrClosed) {
		return err
	}
	log.Errorf("Engine: present failed: %v", err)
	return nil
}

func (e *Engine) setBacklight(on bool) {
	if bl, ok := e.surface.(render.Backlight); ok {
		bl.SetBacklight(on)
	}
}

func (e *Engine) publish(smoothed []float64) {
	e.mu.Lock()
	copy(e.published, smoothed)
	e.mu.Unlock()
}

// Run steps frames back to back until ctx is cancelled or the surface is
// closed. Closing the surface is a normal exit and returns nil. The loop keeps
// its OS thread for its whole life.
func (e *Engine) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log.Infof("Engine: frame loop started")
	defer func() {
		s := e.Stats()
		log.Infof("Engine: frame loop stopped after %d frames (%d rendered, %d frozen, %d overruns)",
			s.Frames, s.Rendered, s.Frozen, s.Overruns)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if _, err := e.Step(); err != nil {
			if errors.Is(err, render.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// BandsInto copies the last published bar heights into dst, which must hold
// NumBands() values. Safe to call from any goroutine.
func (e *Engine) BandsInto(dst []float64) error {
	if len(dst) < len(e.published) {
		return fmt.Errorf("destination holds %d values, need %d", len(dst), len(e.published))
	}
	e.mu.RLock()
	copy(dst, e.published)
	e.mu.RUnlock()
	return nil
}

// NumBands returns the number of bars.
func (e *Engine) NumBands() int {
	return len(e.published)
}

// Stats returns the loop counters. Safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:   e.frames.Load(),
		Rendered: e.rendered.Load(),
		Frozen:   e.gate.Skipped(),
		Overruns: e.clock.Overruns(),
	}
}

// Close stops a running recording.
func (e *Engine) Close() error {
	return e.StopRecording()
}
