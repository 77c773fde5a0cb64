package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mlp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "data:\n  path: data/wili\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.0001, cfg.Optimizer.InitialLR)
	assert.Equal(t, 20, cfg.Training.Epochs)
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.True(t, cfg.Training.Shuffle)
	assert.Equal(t, "mlp-3layer-tfidf-50", cfg.Model.Name)
	assert.Equal(t, 512, cfg.Model.HiddenUnits)
	assert.Equal(t, "wili", cfg.Data.Provider)
	assert.Equal(t, "data/wili", cfg.Data.Path)
	assert.Equal(t, "tfidf", cfg.Features.Extractor)
	assert.Equal(t, DefaultMaxFeatures, cfg.Features.MaxFeatures)
	assert.Equal(t, 211, cfg.Report.BaselineClasses)
	assert.Equal(t, filepath.Join(".", "mlp-3layer-tfidf-50.h5"), cfg.ModelPath())
}

func TestLoadOverridesDefaults(t *testing.T) {
	body := `
optimizer:
  initial_lr: 0.01
training:
  epochs: 3
  shuffle: false
model:
  name: tiny
  output_dir: out
data:
  path: /tmp/wili
features:
  analyzer: word
  ngram_max: 2
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Optimizer.InitialLR)
	assert.Equal(t, 3, cfg.Training.Epochs)
	assert.False(t, cfg.Training.Shuffle)
	assert.Equal(t, 32, cfg.Training.BatchSize)
	assert.Equal(t, "word", cfg.Features.Analyzer)
	assert.Equal(t, 2, cfg.Features.NgramMax)
	assert.Equal(t, filepath.Join("out", "tiny.h5"), cfg.ModelPath())
	assert.Equal(t, filepath.Join("out", "tiny.json"), cfg.MetadataPath())
}

func TestLoadWithOverridesFillsMissingKeys(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")

	_, err := Load(path)
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))

	cfg, err := LoadWithOverrides(path, Overrides{DataPath: "data/wili", LogLevel: "debug", Epochs: 4})
	require.NoError(t, err)
	assert.Equal(t, "data/wili", cfg.Data.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Training.Epochs)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "optimizer: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero lr", func(c *Config) { c.Optimizer.InitialLR = 0 }},
		{"zero epochs", func(c *Config) { c.Training.Epochs = 0 }},
		{"zero batch", func(c *Config) { c.Training.BatchSize = 0 }},
		{"negative patience", func(c *Config) { c.Training.EarlyStoppingPatience = -1 }},
		{"no name", func(c *Config) { c.Model.Name = "" }},
		{"no hidden units", func(c *Config) { c.Model.HiddenUnits = 0 }},
		{"wili without path", func(c *Config) { c.Data.Path = "" }},
		{"validation fraction", func(c *Config) { c.Data.ValidationFraction = 1 }},
		{"zero validation fraction", func(c *Config) { c.Data.ValidationFraction = 0 }},
		{"ngram range", func(c *Config) { c.Features.NgramMin, c.Features.NgramMax = 2, 1 }},
		{"negative max features", func(c *Config) { c.Features.MaxFeatures = -1 }},
		{"baseline", func(c *Config) { c.Report.BaselineClasses = 0 }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Data.Path = "data"
			tt.mutate(cfg)
			var verr *errors.ValidationError
			assert.True(t, errors.As(cfg.Validate(), &verr))
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{LogLevel: "debug", Epochs: 2, OutputDir: "models", DataPath: "wili"})
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Training.Epochs)
	assert.Equal(t, "models", cfg.Model.OutputDir)
	assert.Equal(t, "wili", cfg.Data.Path)

	cfg.ApplyOverrides(Overrides{})
	assert.Equal(t, 2, cfg.Training.Epochs)
}

func TestMaxFeaturesZeroKeepsVocabulary(t *testing.T) {
	cfg, err := Load(writeConfig(t, "data:\n  path: data/wili\nfeatures:\n  max_features: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Features.MaxFeatures)
}
