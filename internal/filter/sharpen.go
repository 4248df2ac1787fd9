package filter

// Sharpen convolves a luminance plane with a 3x3 cross kernel and returns a
// new plane clamped to [0,255]. Classification uses center weight 5 with
// edge weights -1; detection uses a gentler center 3 with edge weights -0.5,
// since over-sharpening hurts bounding-box regression. The one-pixel border
// passes through unchanged.
func Sharpen(gray []float64, w, h int, detection bool) []float64 {
	out := make([]float64, len(gray))
	copy(out, gray)
	if len(gray) != w*h || w < 3 || h < 3 {
		return out
	}

	center, edge := 5.0, -1.0
	if detection {
		center, edge = 3.0, -0.5
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			v := center*gray[i] +
				edge*(gray[i-w]+gray[i+w]+gray[i-1]+gray[i+1])
			out[i] = clampLum(v)
		}
	}
	return out
}
