// Package preprocess prepares decoded images for model inference: dimension
// validation, aspect-preserving downscale, task-dependent filtering, and
// re-encoding. It also computes the scaling parameters consumed later by the
// coordinate mapper.
package preprocess

import (
	"fmt"

	"github.com/MeKo-Tech/peek/internal/imgio"
)

// Task selects the processing profile.
type Task string

const (
	TaskClassification Task = "classification"
	TaskDetection      Task = "detection"
)

// Provider hints that a hosted model family will consume the output, which
// changes the target size and encoding format.
type Provider string

const (
	ProviderNone        Provider = ""
	ProviderHuggingFace Provider = "huggingface"
)

// Target-size policy constants.
const (
	DefaultMaxSize = 1024
	DefaultMinSize = imgio.MinDimension
	DefaultQuality = 0.9

	// huggingFaceTargetSize is forced when the hosted provider is hinted.
	huggingFaceTargetSize = 800
	// detectionTargetSize caps the longer side for local detection models.
	detectionTargetSize = 640

	denoiseRadius = 2
)

// Options configures a preprocessing call.
type Options struct {
	MaxSize  int     // upper bound on the longer dimension after scaling
	MinSize  int     // lower bound on both dimensions before any processing
	Quality  float64 // re-encoding quality in [0,1]
	Task     Task
	Provider Provider

	EnhanceContrast bool
	Denoise         bool
	Sharpen         bool
}

// DefaultOptions returns the default processing options.
func DefaultOptions() Options {
	return Options{
		MaxSize:         DefaultMaxSize,
		MinSize:         DefaultMinSize,
		Quality:         DefaultQuality,
		Task:            TaskClassification,
		EnhanceContrast: true,
		Denoise:         true,
		Sharpen:         true,
	}
}

// Validate checks option consistency.
func (o Options) Validate() error {
	if o.MaxSize <= 0 {
		return fmt.Errorf("max size must be positive, got %d", o.MaxSize)
	}
	if o.MinSize <= 0 {
		return fmt.Errorf("min size must be positive, got %d", o.MinSize)
	}
	if o.Quality < 0 || o.Quality > 1 {
		return fmt.Errorf("quality must be in [0,1], got %g", o.Quality)
	}
	switch o.Task {
	case TaskClassification, TaskDetection:
	default:
		return fmt.Errorf("unknown task: %q", o.Task)
	}
	return nil
}

// targetMax resolves the effective upper bound for the longer dimension.
func (o Options) targetMax() int {
	if o.Provider == ProviderHuggingFace {
		return huggingFaceTargetSize
	}
	if o.Task == TaskDetection {
		if o.MaxSize < detectionTargetSize {
			return o.MaxSize
		}
		return detectionTargetSize
	}
	return o.MaxSize
}

// lossless reports whether the output must be encoded as PNG at full quality.
func (o Options) lossless() bool {
	return o.Provider == ProviderHuggingFace || o.Task == TaskDetection
}
