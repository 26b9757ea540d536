// SPDX-License-Identifier: MIT
package render

import "image/color"

// Color is a 16-bit RGB565 pixel, the native format of the display.
type Color uint16

// RGB packs 8-bit components into RGB565, dropping the low bits.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// Components expands the pixel back to 8-bit components. The dropped low
// bits are filled by replicating the high ones so that white stays white.
func (c Color) Components() (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1F)
	g6 := uint8(c >> 5 & 0x3F)
	b5 := uint8(c & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.Components()
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xFFFF
}

// ColorModel converts any color to RGB565. Alpha is ignored: the display has
// no transparency.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	if rc, ok := c.(Color); ok {
		return rc
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})

// Palette of the device's retro theme.
var (
	DeepNavy      = RGB(8, 12, 32)
	RetroYellow   = RGB(255, 255, 0)
	RetroMagenta  = RGB(255, 0, 255)
	DarkMagenta   = RGB(128, 0, 128)
	BrightMagenta = RGB(255, 50, 127)
)

// MapRange linearly maps x from [inMin, inMax] onto [outMin, outMax] with
// integer arithmetic, truncating toward zero. Values outside the input range
// extrapolate.
func MapRange(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
