// Package filter implements the pure pixel filters applied before
// classification: luminance extraction, median denoise, sharpening, and
// block-wise adaptive contrast. All functions are deterministic and operate
// on explicit buffers; inputs are never mutated.
package filter

import (
	"image"

	"github.com/MeKo-Tech/peek/internal/mempool"
	"github.com/disintegration/imaging"
)

// Fixed luminance weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToGrayscale extracts a per-pixel luminance plane from an image using the
// fixed weighting L = 0.299R + 0.587G + 0.114B. Values are in [0,255].
func ToGrayscale(img image.Image) ([]float64, int, int) {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := make([]float64, w*h)
	fillGrayscale(nrgba, gray, w, h)
	return gray, w, h
}

// ToGrayscalePooled is like ToGrayscale but draws the plane from the buffer
// pool. The caller must return it via mempool.PutFloat64 when done.
func ToGrayscalePooled(img image.Image) ([]float64, int, int) {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := mempool.GetFloat64(w * h)
	fillGrayscale(nrgba, gray, w, h)
	return gray, w, h
}

func fillGrayscale(nrgba *image.NRGBA, gray []float64, w, h int) {
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			r := float64(row[i])
			g := float64(row[i+1])
			b := float64(row[i+2])
			gray[y*w+x] = lumaR*r + lumaG*g + lumaB*b
		}
	}
}

// ReapplyLuminance imposes a filtered luminance plane back onto the color
// image while preserving hue: each channel is scaled by the ratio of the new
// luminance to the original per-pixel RGB average. The denominator is floored
// at 1 to guard division by zero. Returns a new image.
func ReapplyLuminance(img image.Image, gray []float64, w, h int) *image.NRGBA {
	src := imaging.Clone(img)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			r := float64(srcRow[i])
			g := float64(srcRow[i+1])
			b := float64(srcRow[i+2])

			avg := (r + g + b) / 3.0
			if avg < 1 {
				avg = 1
			}
			ratio := gray[y*w+x] / avg

			dstRow[i] = clampByte(r * ratio)
			dstRow[i+1] = clampByte(g * ratio)
			dstRow[i+2] = clampByte(b * ratio)
			dstRow[i+3] = srcRow[i+3]
		}
	}
	return dst
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clampLum(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
