package mapper

import (
	"testing"

	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCornerPair(t *testing.T) {
	// scaledWidth=640, destWidth=1280 gives scaleX=2; same vertically.
	sp := preprocess.ScalingParameters{Scale: 0.5, ScaledWidth: 640, ScaledHeight: 360}
	r, err := Map([4]float64{100, 50, 200, 150}, models.FamilyCornerPair, 1280, 720, sp)
	require.NoError(t, err)
	assert.InDelta(t, 200, r.X, 1e-9)
	assert.InDelta(t, 100, r.Y, 1e-9)
	assert.InDelta(t, 200, r.Width, 1e-9)
	assert.InDelta(t, 200, r.Height, 1e-9)
}

func TestMapOriginExtentSubtractsLetterboxOffsets(t *testing.T) {
	// offsetX=20, scaledWidth=600, destWidth=1200: scaleX=2.
	sp := preprocess.ScalingParameters{Scale: 1, ScaledWidth: 600, ScaledHeight: 360, OffsetX: 20, OffsetY: 0}
	r, err := Map([4]float64{20, 30, 100, 40}, models.FamilyOriginExtent, 1200, 720, sp)
	require.NoError(t, err)
	assert.InDelta(t, 0, r.X, 1e-9)
	assert.InDelta(t, 60, r.Y, 1e-9)
	assert.InDelta(t, 200, r.Width, 1e-9)
	assert.InDelta(t, 80, r.Height, 1e-9)
}

func TestMapUnknownFamilyFails(t *testing.T) {
	sp := preprocess.ScalingParameters{ScaledWidth: 640, ScaledHeight: 640}
	_, err := Map([4]float64{0, 0, 10, 10}, models.FamilyUnknown, 640, 640, sp)
	require.Error(t, err)
	var ue *models.UnsupportedModelError
	assert.ErrorAs(t, err, &ue)
}

func TestMapRejectsInvalidScalingParameters(t *testing.T) {
	_, err := Map([4]float64{0, 0, 10, 10}, models.FamilyCornerPair, 640, 640, preprocess.ScalingParameters{})
	require.Error(t, err)

	sp := preprocess.ScalingParameters{ScaledWidth: 640, ScaledHeight: 640}
	_, err = Map([4]float64{0, 0, 10, 10}, models.FamilyCornerPair, 0, 640, sp)
	require.Error(t, err)
}

func TestClampShrinksOverflowingBox(t *testing.T) {
	r := Clamp(Rect{X: 500, Y: 0, Width: 300, Height: 100}, 640, 480)
	assert.InDelta(t, 340, r.X, 1e-9)
	assert.InDelta(t, 300, r.Width, 1e-9)
	assert.LessOrEqual(t, r.X+r.Width, 640.0)

	r = Clamp(Rect{X: -50, Y: -20, Width: 100, Height: 100}, 640, 480)
	assert.InDelta(t, 0, r.X, 1e-9)
	assert.InDelta(t, 0, r.Y, 1e-9)
}

func TestClampIdempotent(t *testing.T) {
	cases := []Rect{
		{X: 500, Y: 400, Width: 300, Height: 300},
		{X: -100, Y: -100, Width: 900, Height: 900},
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 0, Y: 0, Width: 0, Height: 0},
	}
	for _, c := range cases {
		once := Clamp(c, 640, 480)
		twice := Clamp(once, 640, 480)
		assert.Equal(t, once, twice, "clamp must be idempotent for %+v", c)
	}
}

func TestClampBoxLargerThanSurface(t *testing.T) {
	r := Clamp(Rect{X: 10, Y: 10, Width: 5000, Height: 5000}, 640, 480)
	assert.InDelta(t, 0, r.X, 1e-9)
	assert.InDelta(t, 0, r.Y, 1e-9)
	assert.InDelta(t, 640, r.Width, 1e-9)
	assert.InDelta(t, 480, r.Height, 1e-9)
}

func TestMapResultAlwaysInsideSurface(t *testing.T) {
	sp := preprocess.ScalingParameters{ScaledWidth: 640, ScaledHeight: 640, OffsetX: 80, OffsetY: 0}
	boxes := [][4]float64{
		{-50, -50, 700, 700},
		{0, 0, 640, 640},
		{600, 600, 40, 40},
		{639, 0, 10, 700},
	}
	for _, b := range boxes {
		r, err := Map(b, models.FamilyOriginExtent, 800, 600, sp)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.X, 0.0)
		assert.GreaterOrEqual(t, r.Y, 0.0)
		assert.LessOrEqual(t, r.X+r.Width, 800.0+1e-9)
		assert.LessOrEqual(t, r.Y+r.Height, 600.0+1e-9)
	}
}
