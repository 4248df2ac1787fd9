package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/peek/internal/inference"
	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/MeKo-Tech/peek/internal/preprocess"
)

// Config represents the complete configuration for the peek application.
// It covers all commands (classify, detect, serve, models) and supports
// loading from configuration files, environment variables, and flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Preprocessing configuration
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`

	// Inference backend configuration
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference" json:"inference"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// PreprocessConfig contains image preprocessing settings.
type PreprocessConfig struct {
	MaxSize         int     `mapstructure:"max_size" yaml:"max_size" json:"max_size"`
	Quality         float64 `mapstructure:"quality" yaml:"quality" json:"quality"`
	Denoise         bool    `mapstructure:"denoise" yaml:"denoise" json:"denoise"`
	Sharpen         bool    `mapstructure:"sharpen" yaml:"sharpen" json:"sharpen"`
	EnhanceContrast bool    `mapstructure:"enhance_contrast" yaml:"enhance_contrast" json:"enhance_contrast"`
}

// InferenceConfig contains hosted inference backend settings.
type InferenceConfig struct {
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Token             string  `mapstructure:"token" yaml:"token" json:"token"`
	MinScore          float64 `mapstructure:"min_score" yaml:"min_score" json:"min_score"`
	DefaultClassifier string  `mapstructure:"default_classifier" yaml:"default_classifier" json:"default_classifier"`
	DefaultDetector   string  `mapstructure:"default_detector" yaml:"default_detector" json:"default_detector"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool   `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min" json:"rate_limit_per_min"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	pre := preprocess.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Preprocess: PreprocessConfig{
			MaxSize:         pre.MaxSize,
			Quality:         pre.Quality,
			Denoise:         pre.Denoise,
			Sharpen:         pre.Sharpen,
			EnhanceContrast: pre.EnhanceContrast,
		},
		Inference: InferenceConfig{
			BaseURL:           "https://api-inference.huggingface.co",
			MinScore:          inference.AcceptThreshold,
			DefaultClassifier: models.MobileNetV2,
			DefaultDetector:   models.CocoSSD,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     5,
			TimeoutSec:      90,
			ShutdownTimeout: 10,
			OverlayEnabled:  true,
			RateLimitPerMin: 60,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Preprocess.MaxSize < preprocess.DefaultMinSize {
		return fmt.Errorf("invalid preprocess max size: %d (must be at least %d)",
			c.Preprocess.MaxSize, preprocess.DefaultMinSize)
	}
	if c.Preprocess.Quality <= 0 || c.Preprocess.Quality > 1 {
		return fmt.Errorf("invalid preprocess quality: %.2f (must be in (0.0, 1.0])", c.Preprocess.Quality)
	}
	if err := validateThreshold(c.Inference.MinScore, "inference.min_score"); err != nil {
		return err
	}
	if c.Inference.BaseURL == "" {
		return fmt.Errorf("inference base URL must not be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.RateLimitPerMin < 0 {
		return fmt.Errorf("invalid rate limit: %d (must not be negative)", c.Server.RateLimitPerMin)
	}

	return nil
}

// BuildPipeline assembles a pipeline from the configuration, backed by the
// configured hosted inference endpoint.
func (c *Config) BuildPipeline() (*pipeline.Pipeline, error) {
	client, err := inference.NewHostedClient(c.Inference.BaseURL, c.Inference.Token)
	if err != nil {
		return nil, err
	}
	return pipeline.NewBuilder().
		WithEngine(client).
		WithMaxSize(c.Preprocess.MaxSize).
		WithQuality(c.Preprocess.Quality).
		WithFilters(c.Preprocess.Denoise, c.Preprocess.Sharpen, c.Preprocess.EnhanceContrast).
		WithMinScore(c.Inference.MinScore).
		WithOverlay(c.Server.OverlayEnabled).
		Build()
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
