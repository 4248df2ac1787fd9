// Package testutil provides synthetic image fixtures for tests.
package testutil

import (
	"image"
	"image/color"
)

// GradientImage returns a w x h opaque image with a smooth two-axis gradient.
func GradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 96,
				A: 255,
			})
		}
	}
	return img
}

// NoiseImage returns a w x h opaque image of deterministic pseudo-noise.
// The seed selects a reproducible pattern.
func NoiseImage(w, h int, seed uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	s := seed | 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// xorshift keeps fixtures reproducible without math/rand.
			s ^= s << 13
			s ^= s >> 17
			s ^= s << 5
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(s),
				G: uint8(s >> 8),
				B: uint8(s >> 16),
				A: 255,
			})
		}
	}
	return img
}

// SolidImage returns a w x h image filled with a single color.
func SolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// CheckerboardImage returns a w x h image of alternating cells, useful for
// verifying that filters and resampling actually touched the pixels.
func CheckerboardImage(w, h, cell int) *image.NRGBA {
	if cell < 1 {
		cell = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 235, G: 235, B: 235, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
			}
		}
	}
	return img
}
