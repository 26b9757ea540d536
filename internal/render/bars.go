// SPDX-License-Identifier: MIT
package render

import "fmt"

// Bar geometry. Bars are one pixel wide and two pixels apart, anchored to the
// bottom of the surface.
const (
	BarWidth = 1
	BarPitch = 2
)

// BarRenderer draws one vertical bar per smoothed band value.
type BarRenderer struct {
	maxHeight int
}

// NewBarRenderer creates a renderer for bars of at most maxHeight pixels.
func NewBarRenderer(maxHeight int) (*BarRenderer, error) {
	if maxHeight <= 0 {
		return nil, fmt.Errorf("max bar height must be positive, got %d", maxHeight)
	}
	return &BarRenderer{maxHeight: maxHeight}, nil
}

// Height converts a smoothed value to whole pixels in [0, max].
func (r *BarRenderer) Height(v float64) int {
	h := int(v)
	return max(0, min(r.maxHeight, h))
}

// BarColor is the colour of a bar of height h: red throughout, gaining green
// and losing blue as it grows.
func (r *BarRenderer) BarColor(s Surface, h int) Color {
	g := MapRange(h, 0, r.maxHeight, 0, 200)
	b := MapRange(h, 0, r.maxHeight, 180, 0)
	return s.Color(255, uint8(g), uint8(b))
}

// Draw renders the bars. Bar i is drawn at x = 2*i; zero-height bars draw
// nothing.
//
// HOT PATH: no allocations.
func (r *BarRenderer) Draw(s Surface, smoothed []float64) {
	_, height := s.Size()
	for i, v := range smoothed {
		h := r.Height(v)
		if h == 0 {
			continue
		}
		s.FillRect(i*BarPitch, height-h, BarWidth, h, r.BarColor(s, h))
	}
}
