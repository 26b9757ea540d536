// SPDX-License-Identifier: MIT
package render

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// The display uses a fixed 7x13 bitmap font.
var face = basicfont.Face7x13

// TextWidth returns the width of s in pixels.
func TextWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Canvas is a surface that can be written one pixel at a time. Text is only
// drawn on canvases.
type Canvas interface {
	SetPixel(x, y int, c Color)
}

// drawText renders s with its top-left corner at (x, y). Glyph masks are
// copied straight from the font's atlas, so drawing does not allocate.
func drawText(dst Canvas, s string, x, y int, c Color) {
	dot := fixed.P(x, y+face.Ascent)
	for _, r := range s {
		dr, mask, maskp, advance, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}
		if alpha, isAlpha := mask.(*image.Alpha); isAlpha {
			blit(dst, alpha, dr, maskp, c)
		}
		dot.X += advance
	}
}

// blit sets every pixel of dr whose mask coverage is at least one half.
func blit(dst Canvas, mask *image.Alpha, dr image.Rectangle, maskp image.Point, c Color) {
	for y := dr.Min.Y; y < dr.Max.Y; y++ {
		my := maskp.Y + y - dr.Min.Y
		for x := dr.Min.X; x < dr.Max.X; x++ {
			if mask.AlphaAt(maskp.X+x-dr.Min.X, my).A >= 0x80 {
				dst.SetPixel(x, y, c)
			}
		}
	}
}

// drawGlow renders s in c over an eight-way halo in glowColor.
func drawGlow(dst Canvas, s string, x, y int, c, glowColor Color) {
	for _, o := range glowOffsets {
		drawText(dst, s, x+o.X, y+o.Y, glowColor)
	}
	drawText(dst, s, x, y, c)
}

var glowOffsets = [...]image.Point{
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
	{-2, 0}, {2, 0}, {0, -2}, {0, 2},
}
