package preprocess

import "math"

// ScalingParameters records the scale factor and letterbox offsets produced
// while preparing an image. They must be retained by the caller and handed
// unchanged to the coordinate mapper for that same image.
type ScalingParameters struct {
	Scale        float64
	ScaledWidth  int
	ScaledHeight int
	OffsetX      int
	OffsetY      int
}

// fitScale computes the downscale-only factor that brings the longer side of
// srcW x srcH to at most target, preserving aspect ratio.
func fitScale(srcW, srcH, target int) float64 {
	longer := srcW
	if srcH > longer {
		longer = srcH
	}
	if longer <= target {
		return 1.0
	}
	return float64(target) / float64(longer)
}

// scaledDims applies a scale factor with round-to-nearest on both axes.
func scaledDims(srcW, srcH int, scale float64) (int, int) {
	if scale >= 1.0 {
		return srcW, srcH
	}
	w := int(math.Round(float64(srcW) * scale))
	h := int(math.Round(float64(srcH) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// LetterboxParams computes the parameters for centering a proportionally
// scaled image inside a fixed canvasW x canvasH canvas. Unlike fitScale this
// may upscale, because the canvas flow always fills the canvas on one axis.
func LetterboxParams(srcW, srcH, canvasW, canvasH int) ScalingParameters {
	sx := float64(canvasW) / float64(srcW)
	sy := float64(canvasH) / float64(srcH)
	scale := math.Min(sx, sy)

	scaledW := int(math.Round(float64(srcW) * scale))
	scaledH := int(math.Round(float64(srcH) * scale))
	if scaledW > canvasW {
		scaledW = canvasW
	}
	if scaledH > canvasH {
		scaledH = canvasH
	}

	return ScalingParameters{
		Scale:        scale,
		ScaledWidth:  scaledW,
		ScaledHeight: scaledH,
		OffsetX:      (canvasW - scaledW) / 2,
		OffsetY:      (canvasH - scaledH) / 2,
	}
}
