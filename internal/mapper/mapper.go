// Package mapper converts raw detector bounding boxes into the pixel space
// of the original, unscaled image. The two detector families emit boxes in
// different conventions and coordinate spaces; the family tag on the model
// descriptor selects the transform, never the shape of the data.
package mapper

import (
	"fmt"

	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/preprocess"
)

// Rect is a mapped bounding box in destination pixel coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Map transforms one raw detection box into destination coordinates and
// clamps it to lie fully within [0,destW] x [0,destH]. The box layout depends
// on the family:
//   - FamilyCornerPair: [xmin, ymin, xmax, ymax] in the resized image space.
//   - FamilyOriginExtent: [x, y, width, height] in the letterboxed canvas
//     space, already offset by the centering padding.
//
// An unknown family is a hard error; there is no default branch.
func Map(box [4]float64, fam models.Family, destW, destH int, sp preprocess.ScalingParameters) (Rect, error) {
	if destW <= 0 || destH <= 0 {
		return Rect{}, fmt.Errorf("invalid destination size %dx%d", destW, destH)
	}
	if sp.ScaledWidth <= 0 || sp.ScaledHeight <= 0 {
		return Rect{}, fmt.Errorf("invalid scaling parameters: scaled size %dx%d", sp.ScaledWidth, sp.ScaledHeight)
	}

	scaleX := float64(destW) / float64(sp.ScaledWidth)
	scaleY := float64(destH) / float64(sp.ScaledHeight)

	var r Rect
	switch fam {
	case models.FamilyCornerPair:
		r = Rect{
			X:      box[0] * scaleX,
			Y:      box[1] * scaleY,
			Width:  (box[2] - box[0]) * scaleX,
			Height: (box[3] - box[1]) * scaleY,
		}
	case models.FamilyOriginExtent:
		r = Rect{
			X:      (box[0] - float64(sp.OffsetX)) * scaleX,
			Y:      (box[1] - float64(sp.OffsetY)) * scaleY,
			Width:  box[2] * scaleX,
			Height: box[3] * scaleY,
		}
	default:
		return Rect{}, &models.UnsupportedModelError{ID: fmt.Sprintf("family(%s)", fam)}
	}

	return Clamp(r, destW, destH), nil
}

// Clamp forces a rect fully inside the destination surface. Boxes that would
// overflow are shrunk rather than rejected; applying Clamp twice yields the
// same result as applying it once.
func Clamp(r Rect, destW, destH int) Rect {
	w := float64(destW)
	h := float64(destH)

	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if r.Width > w {
		r.Width = w
	}
	if r.Height > h {
		r.Height = h
	}

	r.X = clampF(r.X, 0, w-r.Width)
	r.Y = clampF(r.Y, 0, h-r.Height)
	if r.Width > w-r.X {
		r.Width = w - r.X
	}
	if r.Height > h-r.Y {
		r.Height = h - r.Y
	}
	return r
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
