package filter

// DefaultBlockSize is the tile edge used by AdaptiveContrast.
const DefaultBlockSize = 8

// DefaultMaxContrast caps the per-tile amplification in classification mode.
const DefaultMaxContrast = 2.0

// detectionContrastLimit is the gentler cap used in detection mode.
const detectionContrastLimit = 1.5

// AdaptiveContrast stretches contrast locally: the plane is partitioned into
// non-overlapping blockSize x blockSize tiles (edge tiles clipped to bounds),
// and every pixel in a tile is remapped as mean + scale*(value-mean), where
// scale = min(limit, 1/localContrast) and localContrast = (max-min)/255.
// Flat tiles get the full limit. Returns a new plane clamped to [0,255].
func AdaptiveContrast(gray []float64, w, h, blockSize int, maxContrast float64, detection bool) []float64 {
	out := make([]float64, len(gray))
	copy(out, gray)
	if len(gray) != w*h || w <= 0 || h <= 0 {
		return out
	}

	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	limit := maxContrast
	if limit <= 0 {
		limit = DefaultMaxContrast
	}
	if detection {
		limit = detectionContrastLimit
	}

	for by := 0; by < h; by += blockSize {
		yEnd := by + blockSize
		if yEnd > h {
			yEnd = h
		}
		for bx := 0; bx < w; bx += blockSize {
			xEnd := bx + blockSize
			if xEnd > w {
				xEnd = w
			}
			stretchTile(gray, out, w, bx, by, xEnd, yEnd, limit)
		}
	}
	return out
}

func stretchTile(gray, out []float64, w, x0, y0, x1, y1 int, limit float64) {
	minV, maxV := gray[y0*w+x0], gray[y0*w+x0]
	sum := 0.0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := gray[y*w+x]
			sum += v
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	n := float64((y1 - y0) * (x1 - x0))
	mean := sum / n

	contrast := (maxV - minV) / 255.0
	scale := limit
	if contrast > 0 && 1.0/contrast < limit {
		scale = 1.0 / contrast
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := y*w + x
			out[i] = clampLum(mean + scale*(gray[i]-mean))
		}
	}
}
