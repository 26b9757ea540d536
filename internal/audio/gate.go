// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"

	"visualizer/internal/sink"
)

// PlaybackGate decides once per frame whether the bar pass runs. While the
// sink is paused or stopped the bars freeze: aggregation, smoothing and bar
// drawing are skipped and the smoothed values keep their last state. A
// disabled gate lets every frame through.
type PlaybackGate struct {
	disabled atomic.Bool
	skipped  atomic.Uint64
}

func (g *PlaybackGate) Enable()  { g.disabled.Store(false) }
func (g *PlaybackGate) Disable() { g.disabled.Store(true) }

// Enabled reports whether the gate is active.
func (g *PlaybackGate) Enabled() bool { return !g.disabled.Load() }

// Open reports whether the bar pass runs for a frame in playback state p,
// counting frames it holds back.
func (g *PlaybackGate) Open(p sink.PlaybackState) bool {
	if g.disabled.Load() || (p != sink.Paused && p != sink.Stopped) {
		return true
	}
	g.skipped.Add(1)
	return false
}

// Skipped returns the number of frames the gate has held back.
func (g *PlaybackGate) Skipped() uint64 { return g.skipped.Load() }

func (e *Engine) EnableGate()  { e.gate.Enable() }
func (e *Engine) DisableGate() { e.gate.Disable() }
