// SPDX-License-Identifier: MIT
package render

import (
	"math"
	"strconv"
	"time"

	"visualizer/internal/config"
	"visualizer/internal/sink"
)

// Layout of the metadata block and the volume indicator.
const (
	titleY  = 8
	artistY = 26
	albumY  = 44

	volumeTextY    = 62
	volumeBarY     = 63
	volumeBarW     = 60
	volumeBarH     = 6
	volumeSpacing  = 4
	numStars       = 25
	scrollDelay    = 45 * time.Millisecond
	scrollStartDel = 2 * time.Second
)

// Scene draws everything around the bars: gradient background, twinkling
// stars, the track metadata, the volume indicator and the animated border.
// Its animation advances once per rendered frame.
type Scene struct {
	width, height int
	start         time.Time

	pulsePhase float64
	wavePhase  float64
	glow       int

	track      sink.Metadata
	scrollX    [3]int
	lastChange time.Time
	lastScroll time.Time
	scrolling  bool

	lastVolume   int
	volumeChange time.Time
}

// NewScene creates a scene for a w by h surface. start is the reference for
// the star animation.
func NewScene(w, h int, start time.Time) *Scene {
	return &Scene{
		width:      w,
		height:     h,
		start:      start,
		lastVolume: -1,
	}
}

// Backdrop advances the animation and draws the layers that go under the bars.
func (sc *Scene) Backdrop(s Surface, snap sink.Snapshot, now time.Time) {
	sc.pulsePhase += 0.15
	sc.wavePhase += 0.08
	sc.glow = int((math.Sin(sc.pulsePhase) + 1) * 127)

	sc.Background(s)
	sc.Stars(s, now)
	if c, ok := s.(Canvas); ok {
		sc.Metadata(c, snap.Metadata, now)
		sc.VolumeIndicator(s, c, snap.Volume, now)
	} else {
		sc.VolumeIndicator(s, nil, snap.Volume, now)
	}
}

// Background draws a vertical gradient from dim blue at the top to almost
// black at the bottom.
func (sc *Scene) Background(s Surface) {
	for y := range sc.height {
		i := MapRange(y, 0, sc.height, 20, 5)
		s.FillRect(0, y, sc.width, 1, s.Color(uint8(i/4), uint8(i/8), uint8(i/2)))
	}
}

// Stars draws a fixed field of stars whose brightness pulses over time. Dim
// stars are hidden; the brightest get a cross.
func (sc *Scene) Stars(s Surface, now time.Time) {
	ms := float64(now.Sub(sc.start).Milliseconds())
	for i := range numStars {
		x := (i*17 + 23) % sc.width
		y := (i*31 + 47) % sc.height

		twinkle := math.Sin(ms*0.003+float64(i)*0.7)*0.5 + 0.5
		brightness := uint8(twinkle * 255)
		if brightness <= 120 {
			continue
		}
		c := s.Color(brightness, brightness, brightness)
		s.FillRect(x, y, 1, 1, c)
		if brightness > 200 {
			s.FillRect(x+1, y, 1, 1, c)
			s.FillRect(x-1, y, 1, 1, c)
			s.FillRect(x, y+1, 1, 1, c)
			s.FillRect(x, y-1, 1, 1, c)
		}
	}
}

// Metadata draws title, artist and album in yellow with a pulsing magenta
// glow. Lines wider than the screen start scrolling two seconds after the
// track changes and wrap around.
func (sc *Scene) Metadata(c Canvas, track sink.Metadata, now time.Time) {
	if track != sc.track {
		sc.track = track
		sc.scrollX = [3]int{1, 1, 1}
		sc.lastChange = now
		sc.scrolling = false
	}
	if !sc.scrolling && now.Sub(sc.lastChange) > scrollStartDel {
		sc.scrolling = true
		sc.lastScroll = now
	}
	if sc.scrolling && now.Sub(sc.lastScroll) > scrollDelay {
		for i := range sc.scrollX {
			sc.scrollX[i]--
		}
		sc.lastScroll = now
	}

	glow := RGB(uint8(sc.glow), 0, uint8(sc.glow/2))
	lines := [3]string{track.Title, track.Artist, track.Album}
	rows := [3]int{titleY, artistY, albumY}
	for i, line := range lines {
		if line == "" {
			continue
		}
		w := TextWidth(line)
		if w > sc.width-4 {
			drawGlow(c, line, sc.scrollX[i], rows[i], RetroYellow, glow)
			if sc.scrollX[i] < -w-4 {
				sc.scrollX[i] = sc.width - 4
			}
			continue
		}
		drawGlow(c, line, 2+(sc.width-4-w)/2, rows[i], RetroYellow, glow)
	}
}

// VolumeIndicator shows the volume as a percentage and a level bar for a few
// seconds after it changes. The first call always counts as a change. Text is
// drawn only when c is not nil.
func (sc *Scene) VolumeIndicator(s Surface, c Canvas, volume int, now time.Time) {
	if volume != sc.lastVolume {
		sc.lastVolume = volume
		sc.volumeChange = now
	}
	if now.Sub(sc.volumeChange) >= config.VolumeIndicatorLinger {
		return
	}

	label := percentLabels[max(0, min(100, MapRange(volume, 0, config.MaxVolume, 0, 100)))]
	textW := TextWidth(label)
	startX := (sc.width - (textW + volumeSpacing + volumeBarW)) / 2
	barX := startX + textW + volumeSpacing

	if c != nil {
		drawText(c, label, startX, volumeTextY, RetroYellow)
	}

	// Outline
	s.FillRect(barX, volumeBarY, volumeBarW, 1, DarkMagenta)
	s.FillRect(barX, volumeBarY+volumeBarH-1, volumeBarW, 1, DarkMagenta)
	s.FillRect(barX, volumeBarY, 1, volumeBarH, DarkMagenta)
	s.FillRect(barX+volumeBarW-1, volumeBarY, 1, volumeBarH, DarkMagenta)

	level := MapRange(volume, 0, config.MaxVolume, 0, volumeBarW-2)
	level = max(0, min(volumeBarW-2, level))
	if level > 0 {
		s.FillRect(barX+1, volumeBarY+1, level, volumeBarH-2, VolumeColor(volume))
	}
}

var percentLabels = func() (labels [101]string) {
	for i := range labels {
		labels[i] = strconv.Itoa(i) + "%"
	}
	return labels
}()

// VolumeColor is the fill colour of the volume bar: bright magenta below 10%,
// then shading towards yellow.
func VolumeColor(volume int) Color {
	ratio := float64(volume) / config.MaxVolume
	if ratio < 0.1 {
		return BrightMagenta
	}
	t := math.Max(0, math.Min(1, (ratio-0.1)/0.9))
	return RGB(255, uint8(50+t*205), uint8(127*(1-t)))
}

// Border draws the animated magenta waves along the four edges, two pixels
// deep. It goes over the bars.
func (sc *Scene) Border(s Surface) {
	for i := range sc.width {
		top := (math.Sin(sc.wavePhase+float64(i)*0.2) + 1) * 127
		bottom := (math.Cos(sc.wavePhase*1.3+float64(i)*0.15) + 1) * 127
		s.FillRect(i, 0, 1, 2, waveColor(s, top))
		s.FillRect(i, sc.height-2, 1, 2, waveColor(s, bottom))
	}
	for i := range sc.height {
		left := (math.Sin(sc.wavePhase*0.8+float64(i)*0.25) + 1) * 127
		right := (math.Cos(sc.wavePhase*1.1+float64(i)*0.2) + 1) * 127
		s.FillRect(0, i, 2, 1, waveColor(s, left))
		s.FillRect(sc.width-2, i, 2, 1, waveColor(s, right))
	}
}

func waveColor(s Surface, v float64) Color {
	return s.Color(uint8(v), 0, uint8(v/2))
}
