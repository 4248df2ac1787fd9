// Package imgio handles decoding and validation of uploaded images.
package imgio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// MinDimension is the smallest width/height accepted before any processing.
const MinDimension = 224

// DefaultMaxUploadBytes bounds the accepted input size (5 MiB).
const DefaultMaxUploadBytes = 5 * 1024 * 1024

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// supportedFormats maps the format names reported by image.Decode.
var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
}

// ValidationError reports an input that is rejected before processing:
// wrong type, oversized upload, or dimensions below the minimum.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// LoadError reports a decode or re-encode failure.
type LoadError struct {
	Operation string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("image load error in %s: %v", e.Operation, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Metadata captures lightweight pixel information about a decoded image.
type Metadata struct {
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ValidateUpload checks the raw upload size against the configured limit.
// A limit of zero falls back to DefaultMaxUploadBytes.
func ValidateUpload(size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if size > limit {
		return &ValidationError{Reason: fmt.Sprintf("upload of %d bytes exceeds limit of %d bytes", size, limit)}
	}
	return nil
}

// Decode reads and decodes an image, rejecting unsupported formats.
// The minimum-dimension check is NOT applied here; callers gate on
// MinDimension before preprocessing.
func Decode(r io.Reader) (image.Image, Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "read", Err: err}
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, Metadata, error) {
	if len(data) == 0 {
		return nil, Metadata{}, &LoadError{Operation: "decode", Err: errors.New("empty input")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "decode", Err: err}
	}
	if !supportedFormats[format] {
		return nil, Metadata{}, &ValidationError{Reason: fmt.Sprintf("unsupported image format: %s", format)}
	}

	b := img.Bounds()
	meta := Metadata{
		Format:      format,
		SizeBytes:   int64(len(data)),
		Width:       b.Dx(),
		Height:      b.Dy(),
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}
	return img, meta, nil
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, Metadata{}, &ValidationError{Reason: fmt.Sprintf("unsupported file type: %s", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided image path is expected
	if err != nil {
		return nil, Metadata{}, &LoadError{Operation: "load", Err: err}
	}
	return DecodeBytes(data)
}

// CheckMinDimensions rejects images smaller than min in either dimension.
// Violations are a rejection, not a clamp.
func CheckMinDimensions(img image.Image, min int) error {
	if img == nil {
		return &LoadError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	if b.Dx() < min || b.Dy() < min {
		return &ValidationError{
			Reason: fmt.Sprintf("image dimensions %dx%d below minimum %dx%d", b.Dx(), b.Dy(), min, min),
		}
	}
	return nil
}
