// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"visualizer/internal/config"
)

// Shaping constants of the volume gain and the high band boost.
const (
	gainBase     = 10.0  // Gain at volume 0
	gainRatio    = 25.0  // Gain falls by this factor ...
	gainSpan     = 115.0 // ... for every gainSpan volume steps
	boostSlope   = 500.0
	boostPower   = 3.5
	heightFactor = 50.0
)

// Gain returns the volume compensation factor 10*25^(-v/115). A quiet sink
// means a quiet analog line, so low volumes are amplified. volume is clamped
// to [0, 127].
func Gain(volume int) float64 {
	volume = max(config.MinVolume, min(config.MaxVolume, volume))
	return gainBase * math.Pow(gainRatio, -float64(volume)/gainSpan)
}

// Threshold returns the noise floor of band i. It falls off towards the
// higher bands, whose averages are small.
func Threshold(i int, base, decay float64) float64 {
	return base / (1 + decay*float64(i))
}

// Boost returns the height boost of band i out of numBands, growing steeply
// towards the highest band.
func Boost(i, numBands int) float64 {
	if numBands <= 1 {
		return 1
	}
	return math.Pow(1+boostSlope*float64(i)/float64(numBands-1), boostPower)
}

// AggregatorConfig holds the shaping parameters of an Aggregator.
type AggregatorConfig struct {
	BaseThreshold  float64
	ThresholdDecay float64
	MaxHeight      float64
}

// Aggregator turns bin magnitudes into bar heights: average over each band,
// volume gain, per-band noise floor, per-band boost and clamp to the maximum
// bar height. It keeps no state between frames.
type Aggregator struct {
	table      *BandTable
	maxHeight  float64
	thresholds []float64 // Per band, precomputed
	boosts     []float64 // Per band, precomputed
}

// NewAggregator creates an aggregator for the given band table.
func NewAggregator(table *BandTable, cfg AggregatorConfig) (*Aggregator, error) {
	if table == nil {
		return nil, errors.New("aggregator requires a band table")
	}
	if cfg.MaxHeight <= 0 || math.IsNaN(cfg.MaxHeight) {
		return nil, fmt.Errorf("max height must be positive, got %g", cfg.MaxHeight)
	}
	if cfg.BaseThreshold < 0 || cfg.ThresholdDecay < 0 {
		return nil, fmt.Errorf("threshold %g and decay %g must not be negative", cfg.BaseThreshold, cfg.ThresholdDecay)
	}

	n := table.Len()
	a := &Aggregator{
		table:      table,
		maxHeight:  cfg.MaxHeight,
		thresholds: make([]float64, n),
		boosts:     make([]float64, n),
	}
	for i := range n {
		a.thresholds[i] = Threshold(i, cfg.BaseThreshold, cfg.ThresholdDecay)
		a.boosts[i] = Boost(i, n)
	}
	return a, nil
}

// NumBands returns the number of bands.
func (a *Aggregator) NumBands() int {
	return a.table.Len()
}

// Aggregate writes one value per band into out, which must have NumBands()
// entries. Bands whose clipped bin range is empty are 0.
//
// HOT PATH: no allocations.
func (a *Aggregator) Aggregate(mag []float64, volume int, out []float64) {
	gain := Gain(volume)
	out = out[:a.table.Len()]

	for i := range out {
		lo, hi := a.table.Bins(i, len(mag))
		if hi <= lo {
			out[i] = 0
			continue
		}

		sum := 0.0
		for _, m := range mag[lo:hi] {
			sum += m
		}
		avg := sum / float64(hi-lo) * gain

		if avg < a.thresholds[i] {
			out[i] = 0
			continue
		}
		out[i] = math.Min(math.Max(heightFactor*a.boosts[i]*avg, 0), a.maxHeight)
	}
}
