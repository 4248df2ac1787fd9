// Package render draws mapped detections onto an output image for display or
// export. Boxes get a double-stroke outline so they stay visible against any
// background, and each box carries a label chip with the class and score.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/MeKo-Tech/peek/internal/mapper"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ExportFilename is the download name for rendered detection output.
const ExportFilename = "detected-objects.png"

// SurfaceError reports that a drawing surface could not be acquired or
// written. Fatal for the current operation; never retried.
type SurfaceError struct {
	Operation string
	Err       error
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("render surface error in %s: %v", e.Operation, e.Err)
}

func (e *SurfaceError) Unwrap() error { return e.Err }

// Detection is one mapped box ready to draw.
type Detection struct {
	Rect  mapper.Rect
	Label string
	Score float64
}

var (
	strokeOuter = color.RGBA{R: 16, G: 16, B: 16, A: 255}
	strokeInner = color.RGBA{R: 64, G: 255, B: 96, A: 255}
	chipFill    = color.RGBA{R: 16, G: 16, B: 16, A: 255}
	chipText    = color.RGBA{R: 64, G: 255, B: 96, A: 255}
)

const (
	outerThickness = 3
	innerThickness = 1
	chipPadX       = 4
	chipPadY       = 3
)

// Overlay draws the detections onto a copy of img and returns the copy. The
// input image is never modified.
func Overlay(img image.Image, dets []Detection) (*image.RGBA, error) {
	if img == nil {
		return nil, &SurfaceError{Operation: "overlay", Err: errors.New("source image is nil")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &SurfaceError{Operation: "overlay", Err: errors.New("source image is empty")}
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for _, d := range dets {
		drawDetection(dst, d)
	}
	return dst, nil
}

// WritePNG encodes the rendered image for download or saving to disk.
func WritePNG(w io.Writer, img image.Image) error {
	if img == nil {
		return &SurfaceError{Operation: "encode", Err: errors.New("image is nil")}
	}
	if err := png.Encode(w, img); err != nil {
		return &SurfaceError{Operation: "encode", Err: err}
	}
	return nil
}

func drawDetection(dst *image.RGBA, d Detection) {
	rect := image.Rect(
		int(math.Round(d.Rect.X)),
		int(math.Round(d.Rect.Y)),
		int(math.Round(d.Rect.X+d.Rect.Width)),
		int(math.Round(d.Rect.Y+d.Rect.Height)),
	)
	// Outer dark stroke first, bright stroke inside it.
	drawRect(dst, rect, strokeOuter, outerThickness)
	drawRect(dst, rect.Inset(outerThickness), strokeInner, innerThickness)
	drawLabelChip(dst, rect, chipLabel(d))
}

// chipLabel formats the chip text as "<label> <percent>%".
func chipLabel(d Detection) string {
	return fmt.Sprintf("%s %d%%", d.Label, int(math.Round(d.Score*100)))
}

// drawLabelChip places the label above the box when there is room, else
// below it, clamped horizontally so it stays on the surface.
func drawLabelChip(dst *image.RGBA, box image.Rectangle, text string) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	chipW := textW + 2*chipPadX
	chipH := face.Height + 2*chipPadY

	surface := dst.Bounds()
	x := box.Min.X
	if x+chipW > surface.Max.X {
		x = surface.Max.X - chipW
	}
	if x < surface.Min.X {
		x = surface.Min.X
	}

	y := box.Min.Y - chipH
	if y < surface.Min.Y {
		y = box.Max.Y
	}
	if y+chipH > surface.Max.Y {
		y = surface.Max.Y - chipH
	}

	chip := image.Rect(x, y, x+chipW, y+chipH).Intersect(surface)
	if chip.Empty() {
		return
	}
	draw.Draw(dst, chip, &image.Uniform{C: chipFill}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{C: chipText},
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x + chipPadX),
			Y: fixed.I(y + chipPadY + face.Ascent),
		},
	}
	drawer.DrawString(text)
}

// drawRect draws an axis-aligned rectangle outline into dst.
func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	for t := 0; t < thickness; t++ {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}
