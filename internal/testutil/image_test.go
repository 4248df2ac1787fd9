package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientImageDimensions(t *testing.T) {
	img := GradientImage(320, 240)
	b := img.Bounds()
	assert.Equal(t, 320, b.Dx())
	assert.Equal(t, 240, b.Dy())
	// Corners span the gradient.
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), img.NRGBAAt(319, 0).R)
}

func TestNoiseImageDeterministic(t *testing.T) {
	a := NoiseImage(64, 64, 7)
	b := NoiseImage(64, 64, 7)
	require.Equal(t, a.Pix, b.Pix)

	c := NoiseImage(64, 64, 8)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestSolidImage(t *testing.T) {
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	img := SolidImage(16, 8, c)
	assert.Equal(t, c, img.NRGBAAt(0, 0))
	assert.Equal(t, c, img.NRGBAAt(15, 7))
}

func TestCheckerboardImageAlternates(t *testing.T) {
	img := CheckerboardImage(32, 32, 8)
	assert.NotEqual(t, img.NRGBAAt(0, 0), img.NRGBAAt(8, 0))
	assert.Equal(t, img.NRGBAAt(0, 0), img.NRGBAAt(16, 0))
}
