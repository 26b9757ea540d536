// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Present once the display has been closed by the
// user (window closed, quit key).
var ErrClosed = errors.New("display closed")

// Surface is a drawable display. Drawing goes to an off-screen buffer; Present
// makes the finished frame visible.
type Surface interface {
	FillRect(x, y, w, h int, c Color)
	Color(r, g, b uint8) Color
	Size() (w, h int)
	Present() error
}

// Backlight is implemented by surfaces whose backlight can be switched.
type Backlight interface {
	SetBacklight(on bool)
}

// Framebuffer is an in-memory double-buffered surface. Drawing goes to the
// back buffer; Present copies it to the front buffer, which displays read with
// Snapshot from their own goroutine. It is a Canvas for text, and a draw.Image
// for code that works with the image packages.
type Framebuffer struct {
	width, height int
	back          []Color

	mu        sync.Mutex
	front     []Color
	presented uint64

	backlight atomic.Bool
}

var (
	_ Surface    = (*Framebuffer)(nil)
	_ Backlight  = (*Framebuffer)(nil)
	_ Canvas     = (*Framebuffer)(nil)
	_ draw.Image = (*Framebuffer)(nil)
)

// NewFramebuffer allocates a w by h framebuffer with the backlight on.
func NewFramebuffer(w, h int) (*Framebuffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid framebuffer size %dx%d", w, h)
	}
	fb := &Framebuffer{
		width:  w,
		height: h,
		back:   make([]Color, w*h),
		front:  make([]Color, w*h),
	}
	fb.backlight.Store(true)
	return fb, nil
}

func (fb *Framebuffer) Size() (w, h int)          { return fb.width, fb.height }
func (fb *Framebuffer) Color(r, g, b uint8) Color { return RGB(r, g, b) }

// FillRect fills a rectangle, clipped to the buffer.
func (fb *Framebuffer) FillRect(x, y, w, h int, c Color) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, fb.width), min(y+h, fb.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	for row := y0; row < y1; row++ {
		line := fb.back[row*fb.width+x0 : row*fb.width+x1]
		for i := range line {
			line[i] = c
		}
	}
}

// Fill paints the whole back buffer.
func (fb *Framebuffer) Fill(c Color) {
	for i := range fb.back {
		fb.back[i] = c
	}
}

// Present publishes the back buffer.
func (fb *Framebuffer) Present() error {
	fb.mu.Lock()
	copy(fb.front, fb.back)
	fb.presented++
	fb.mu.Unlock()
	return nil
}

// Presented returns the number of frames presented so far.
func (fb *Framebuffer) Presented() uint64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.presented
}

// Snapshot copies the last presented frame into dst, which is grown if too
// short, and returns it.
func (fb *Framebuffer) Snapshot(dst []Color) []Color {
	if cap(dst) < len(fb.front) {
		dst = make([]Color, len(fb.front))
	}
	dst = dst[:len(fb.front)]
	fb.mu.Lock()
	copy(dst, fb.front)
	fb.mu.Unlock()
	return dst
}

func (fb *Framebuffer) SetBacklight(on bool) { fb.backlight.Store(on) }
func (fb *Framebuffer) BacklightOn() bool    { return fb.backlight.Load() }

// --- draw.Image ---

func (fb *Framebuffer) ColorModel() color.Model { return ColorModel }
func (fb *Framebuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.width, fb.height) }

// At returns a pixel of the back buffer.
func (fb *Framebuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return Color(0)
	}
	return fb.back[y*fb.width+x]
}

// Set writes a pixel of the back buffer. Out of range writes are dropped.
func (fb *Framebuffer) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	fb.back[y*fb.width+x] = ColorModel.Convert(c).(Color)
}

// SetPixel writes a pixel without going through color.Color.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return
	}
	fb.back[y*fb.width+x] = c
}

// Pixel returns a pixel of the back buffer.
func (fb *Framebuffer) Pixel(x, y int) Color {
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return 0
	}
	return fb.back[y*fb.width+x]
}
