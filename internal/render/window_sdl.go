// SPDX-License-Identifier: MIT
//go:build sdl

package render

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	// SDL calls must stay on the thread that initialised it.
	runtime.LockOSThread()
}

// Window shows a Framebuffer in an SDL window scaled by an integer factor.
// Window events are polled on every Present, so Present must be called from
// the goroutine that created the window.
type Window struct {
	*Framebuffer

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte
	pitch    int
	frame    []Color
	onKey    func(key string)
}

// NewWindow opens a window for a w by h framebuffer. onKey, if not nil, is
// called with the name of every key pressed.
func NewWindow(title string, w, h, scale int, onKey func(key string)) (*Window, error) {
	fb, err := NewFramebuffer(w, h)
	if err != nil {
		return nil, err
	}
	scale = max(scale, 1)

	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialise SDL video: %w", err)
	}
	win := &Window{Framebuffer: fb, pitch: w * 4, onKey: onKey}
	win.pixels = make([]byte, win.pitch*h)

	win.window, err = sdl.CreateWindow(title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(w*scale), int32(h*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	win.renderer, err = sdl.CreateRenderer(win.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	if err := win.renderer.SetLogicalSize(int32(w), int32(h)); err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to set logical size: %w", err)
	}
	win.texture, err = win.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("failed to create texture: %w", err)
	}
	return win, nil
}

// Present publishes the frame and shows it. It returns ErrClosed once the
// window has been closed.
func (win *Window) Present() error {
	if err := win.Framebuffer.Present(); err != nil {
		return err
	}
	win.frame = win.Snapshot(win.frame)
	lit := win.BacklightOn()
	for i, c := range win.frame {
		var r, g, b uint8
		if lit {
			r, g, b = c.Components()
		}
		o := i * 4
		win.pixels[o+0] = r
		win.pixels[o+1] = g
		win.pixels[o+2] = b
		win.pixels[o+3] = 255
	}

	if err := win.texture.Update(nil, win.pixels, win.pitch); err != nil {
		return err
	}
	if err := win.renderer.Clear(); err != nil {
		return err
	}
	if err := win.renderer.Copy(win.texture, nil, nil); err != nil {
		return err
	}
	win.renderer.Present()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return ErrClosed
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && win.onKey != nil {
				win.onKey(keyName(e.Keysym.Sym))
			}
		}
	}
	return nil
}

func keyName(sym sdl.Keycode) string {
	switch sym {
	case sdl.K_SPACE:
		return "space"
	case sdl.K_ESCAPE:
		return "esc"
	case sdl.K_UP:
		return "up"
	case sdl.K_DOWN:
		return "down"
	case sdl.K_KP_PLUS:
		return "+"
	case sdl.K_KP_MINUS:
		return "-"
	}
	if sym < 128 {
		return string(rune(sym))
	}
	return ""
}

// Close destroys the window and shuts SDL video down.
func (win *Window) Close() error {
	if win.texture != nil {
		win.texture.Destroy()
		win.texture = nil
	}
	if win.renderer != nil {
		win.renderer.Destroy()
		win.renderer = nil
	}
	if win.window != nil {
		win.window.Destroy()
		win.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether the SDL window is compiled in.
func SupportsSDL() bool { return true }
