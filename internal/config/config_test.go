package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.Preprocess.MaxSize)
	assert.InDelta(t, 0.9, cfg.Preprocess.Quality, 1e-9)
	assert.InDelta(t, 0.35, cfg.Inference.MinScore, 1e-9)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.OverlayEnabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.LogLevel = "loud" },
			errMsg: "invalid log level",
		},
		{
			name:   "bad output format",
			mutate: func(c *Config) { c.Output.Format = "xml" },
			errMsg: "invalid output format",
		},
		{
			name:   "max size below minimum",
			mutate: func(c *Config) { c.Preprocess.MaxSize = 100 },
			errMsg: "invalid preprocess max size",
		},
		{
			name:   "quality out of range",
			mutate: func(c *Config) { c.Preprocess.Quality = 1.5 },
			errMsg: "invalid preprocess quality",
		},
		{
			name:   "min score out of range",
			mutate: func(c *Config) { c.Inference.MinScore = 1.2 },
			errMsg: "invalid inference.min_score",
		},
		{
			name:   "empty base url",
			mutate: func(c *Config) { c.Inference.BaseURL = "" },
			errMsg: "base URL",
		},
		{
			name:   "bad port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			errMsg: "invalid server port",
		},
		{
			name:   "bad upload size",
			mutate: func(c *Config) { c.Server.MaxUploadMB = 0 },
			errMsg: "invalid max upload size",
		},
		{
			name:   "negative rate limit",
			mutate: func(c *Config) { c.Server.RateLimitPerMin = -1 },
			errMsg: "invalid rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoaderDefaultsWithoutFile(t *testing.T) {
	l := NewLoaderWith(viper.New())
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoaderReadsYAMLFile(t *testing.T) {
	doc := map[string]any{
		"log_level": "debug",
		"preprocess": map[string]any{
			"max_size": 512,
			"denoise":  false,
		},
		"server": map[string]any{
			"port": 9090,
		},
	}
	data, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "peek.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	l := NewLoaderWith(viper.New())
	cfg, err := l.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 512, cfg.Preprocess.MaxSize)
	assert.False(t, cfg.Preprocess.Denoise)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Untouched keys keep their defaults.
	assert.InDelta(t, 0.9, cfg.Preprocess.Quality, 1e-9)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoaderRejectsMissingFile(t *testing.T) {
	l := NewLoaderWith(viper.New())
	_, err := l.LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peek.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: shouty\n"), 0o600))

	l := NewLoaderWith(viper.New())
	_, err := l.LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoaderEnvironmentOverride(t *testing.T) {
	t.Setenv("PEEK_SERVER_PORT", "7070")
	t.Setenv("PEEK_LOG_LEVEL", "warn")

	l := NewLoaderWith(viper.New())
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfigSearchPathsIncludeEtc(t *testing.T) {
	paths := GetConfigSearchPaths()
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "/etc/peek")
}
