package filter

import (
	"sort"

	"github.com/MeKo-Tech/peek/internal/mempool"
)

// Median applies a median filter of the given radius to a luminance plane and
// returns a new plane. Pixels within radius of any edge pass through
// unchanged. In detection mode the radius is forced to 1 regardless of the
// requested value, so fine edges needed for localization survive.
func Median(gray []float64, w, h, radius int, detection bool) []float64 {
	out := make([]float64, len(gray))
	copy(out, gray)
	if len(gray) != w*h || w <= 0 || h <= 0 {
		return out
	}

	if detection {
		radius = 1
	}
	if radius < 1 {
		return out
	}
	side := 2*radius + 1
	if w < side || h < side {
		return out
	}

	window := mempool.GetFloat64(side * side)
	defer mempool.PutFloat64(window)

	for y := radius; y < h-radius; y++ {
		for x := radius; x < w-radius; x++ {
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				base := (y + dy) * w
				for dx := -radius; dx <= radius; dx++ {
					window[n] = gray[base+x+dx]
					n++
				}
			}
			sort.Float64s(window[:n])
			out[y*w+x] = window[n/2]
		}
	}
	return out
}
