// Package pipeline wires preprocessing, inference, coordinate mapping, and
// rendering into the two user-facing flows: classify and detect.
package pipeline

import (
	"context"
	"errors"

	"github.com/MeKo-Tech/peek/internal/inference"
	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/preprocess"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	Preprocess preprocess.Options
	// MinScore overrides the acceptance threshold when positive.
	MinScore float64
	// RenderOverlay controls whether Detect burns boxes into an output image.
	RenderOverlay bool
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Preprocess:    preprocess.DefaultOptions(),
		MinScore:      inference.AcceptThreshold,
		RenderOverlay: true,
	}
}

// Pipeline executes classification and detection requests. It owns the
// single in-flight session slot and the memoized model loader; both are
// instance state, never package globals.
type Pipeline struct {
	cfg     Config
	engine  inference.Engine
	session *inference.Session
	loader  *inference.Loader
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	engine inference.Engine
	load   inference.LoadFunc
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithEngine sets the inference backend.
func (b *Builder) WithEngine(e inference.Engine) *Builder {
	b.engine = e
	return b
}

// WithMaxSize bounds the longer image dimension after scaling.
func (b *Builder) WithMaxSize(n int) *Builder {
	if n > 0 {
		b.cfg.Preprocess.MaxSize = n
	}
	return b
}

// WithQuality sets the lossy re-encoding quality in [0,1].
func (b *Builder) WithQuality(q float64) *Builder {
	if q > 0 && q <= 1 {
		b.cfg.Preprocess.Quality = q
	}
	return b
}

// WithFilters gates the individual classification filter stages.
func (b *Builder) WithFilters(denoise, sharpen, contrast bool) *Builder {
	b.cfg.Preprocess.Denoise = denoise
	b.cfg.Preprocess.Sharpen = sharpen
	b.cfg.Preprocess.EnhanceContrast = contrast
	return b
}

// WithMinScore overrides the acceptance threshold.
func (b *Builder) WithMinScore(s float64) *Builder {
	if s > 0 && s < 1 {
		b.cfg.MinScore = s
	}
	return b
}

// WithOverlay controls overlay rendering on the detect flow.
func (b *Builder) WithOverlay(enabled bool) *Builder {
	b.cfg.RenderOverlay = enabled
	return b
}

// WithLoadFunc sets the model load function used by the memoized loader.
func (b *Builder) WithLoadFunc(f inference.LoadFunc) *Builder {
	b.load = f
	return b
}

// Build validates the configuration and assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.engine == nil {
		return nil, errors.New("pipeline requires an inference engine")
	}
	if err := b.cfg.Preprocess.Validate(); err != nil {
		return nil, err
	}
	load := b.load
	if load == nil {
		// Default load validates the model id against the registry; hosted
		// backends have nothing to materialize locally.
		load = func(_ context.Context, id string) (inference.Handle, error) {
			d, err := models.Lookup(id)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	return &Pipeline{
		cfg:     b.cfg,
		engine:  b.engine,
		session: &inference.Session{},
		loader:  inference.NewLoader(load),
	}, nil
}

// Config returns a copy of the active configuration.
func (p *Pipeline) Config() Config { return p.cfg }
