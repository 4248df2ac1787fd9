package imgio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPEG", true},
		{"scan.png", true},
		{"anim.gif", true},
		{"pic.webp", true},
		{"old.bmp", true},
		{"doc.pdf", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupportedImage(tt.path), tt.path)
	}
}

func TestValidateUpload(t *testing.T) {
	require.NoError(t, ValidateUpload(1024, 2048))
	require.NoError(t, ValidateUpload(2048, 2048))

	err := ValidateUpload(4096, 2048)
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	// Zero limit falls back to the default 5 MiB.
	require.NoError(t, ValidateUpload(DefaultMaxUploadBytes, 0))
	require.Error(t, ValidateUpload(DefaultMaxUploadBytes+1, 0))
}

func TestDecodeBytes(t *testing.T) {
	data := encodePNG(t, 320, 240)
	img, meta, err := DecodeBytes(data)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 320, meta.Width)
	assert.Equal(t, 240, meta.Height)
	assert.InDelta(t, 320.0/240.0, meta.AspectRatio, 1e-9)
	assert.Equal(t, int64(len(data)), meta.SizeBytes)
}

func TestDecodeBytesErrors(t *testing.T) {
	var le *LoadError

	_, _, err := DecodeBytes(nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &le)

	_, _, err = DecodeBytes([]byte("not an image"))
	require.Error(t, err)
	assert.ErrorAs(t, err, &le)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 64, 48), 0o600))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, 64, meta.Width)
	assert.Equal(t, 48, meta.Height)
}

func TestLoadImageRejectsUnsupportedExtension(t *testing.T) {
	_, _, err := LoadImage("document.pdf")
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCheckMinDimensions(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, MinDimension, MinDimension))
	require.NoError(t, CheckMinDimensions(big, MinDimension))

	narrow := image.NewRGBA(image.Rect(0, 0, MinDimension-1, 500))
	err := CheckMinDimensions(narrow, MinDimension)
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	short := image.NewRGBA(image.Rect(0, 0, 500, 100))
	require.Error(t, CheckMinDimensions(short, MinDimension))
}
