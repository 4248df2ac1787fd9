package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/MeKo-Tech/peek/internal/filter"
	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/mempool"
	"github.com/disintegration/imaging"
)

// Output encoding formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Result is the output of a preprocessing call. It is created fresh per
// request and never cached or reused.
type Result struct {
	Data        []byte
	Format      string
	Width       int
	Height      int
	AspectRatio float64
	Scaling     ScalingParameters
}

// Preprocess validates, resizes, filters, and re-encodes an image for model
// input. Images below the minimum dimension are rejected with a validation
// error before any resampling happens.
func Preprocess(img image.Image, opts Options) (*Result, error) {
	if img == nil {
		return nil, &imgio.LoadError{Operation: "preprocess", Err: errors.New("input image is nil")}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	aspect := float64(srcW) / float64(srcH)

	if err := imgio.CheckMinDimensions(img, opts.MinSize); err != nil {
		return nil, err
	}

	target := opts.targetMax()
	scale := fitScale(srcW, srcH, target)
	newW, newH := scaledDims(srcW, srcH, scale)

	working := img
	if scale < 1.0 {
		working = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}

	if opts.Task == TaskClassification {
		working = applyFilters(working, newW, newH, opts)
	}
	// Detection deliberately skips all pixel filtering: detectors perform
	// worse with denoise/sharpen/contrast preprocessing.

	data, format, err := encode(working, opts)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:        data,
		Format:      format,
		Width:       newW,
		Height:      newH,
		AspectRatio: aspect,
		Scaling: ScalingParameters{
			Scale:        scale,
			ScaledWidth:  newW,
			ScaledHeight: newH,
		},
	}, nil
}

// applyFilters runs the classification filter pipeline in fixed order:
// grayscale, denoise, sharpen, adaptive contrast, then reapplies the filtered
// luminance to the color image.
func applyFilters(img image.Image, w, h int, opts Options) image.Image {
	gray, gw, gh := filter.ToGrayscalePooled(img)
	defer mempool.PutFloat64(gray)

	plane := gray
	if opts.Denoise {
		plane = filter.Median(plane, gw, gh, denoiseRadius, false)
	}
	if opts.Sharpen {
		plane = filter.Sharpen(plane, gw, gh, false)
	}
	if opts.EnhanceContrast {
		plane = filter.AdaptiveContrast(plane, gw, gh, filter.DefaultBlockSize, filter.DefaultMaxContrast, false)
	}
	return filter.ReapplyLuminance(img, plane, gw, gh)
}

// encode re-encodes the processed image. Lossless paths (detection, hosted
// provider) use PNG; everything else uses JPEG at the configured quality.
func encode(img image.Image, opts Options) ([]byte, string, error) {
	var buf bytes.Buffer
	if opts.lossless() {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", &imgio.LoadError{Operation: "encode", Err: err}
		}
		return buf.Bytes(), FormatPNG, nil
	}

	q := int(opts.Quality * 100)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, "", &imgio.LoadError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), FormatJPEG, nil
}
