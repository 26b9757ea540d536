// SPDX-License-Identifier: MIT
//go:build !sdl

package render

import "errors"

// Window is unavailable without the sdl build tag.
type Window struct {
	*Framebuffer
}

func NewWindow(title string, w, h, scale int, onKey func(key string)) (*Window, error) {
	return nil, errors.New("SDL display not enabled; rebuild with -tags sdl")
}

func (win *Window) Close() error { return nil }

func SupportsSDL() bool { return false }
