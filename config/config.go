// Package config loads the YAML run configuration shared by the train and
// wili commands.
package config

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

// Config captures the knobs for a training or evaluation run. It is
// read-only once loaded.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Training  TrainingConfig  `yaml:"training"`
	Model     ModelConfig     `yaml:"model"`
	Data      DataConfig      `yaml:"data"`
	Features  FeaturesConfig  `yaml:"features"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OptimizerConfig configures Adam.
type OptimizerConfig struct {
	InitialLR float64 `yaml:"initial_lr"`
}

// TrainingConfig configures the fit loop.
type TrainingConfig struct {
	Epochs                int   `yaml:"epochs"`
	BatchSize             int   `yaml:"batch_size"`
	Shuffle               bool  `yaml:"shuffle"`
	Seed                  int64 `yaml:"seed"`
	EarlyStoppingPatience int   `yaml:"early_stopping_patience"`
}

// ModelConfig names the network and where it is written.
type ModelConfig struct {
	Name        string `yaml:"name"`
	HiddenUnits int    `yaml:"hidden_units"`
	OutputDir   string `yaml:"output_dir"`
}

// DataConfig selects the dataset provider.
type DataConfig struct {
	Provider           string  `yaml:"provider"`
	Path               string  `yaml:"path"`
	ValidationFraction float64 `yaml:"validation_fraction"`
}

// FeaturesConfig selects and tunes the feature extractor.
//
// Every split is materialized as a dense rows×MaxFeatures float64 matrix,
// so MaxFeatures bounds memory at about 8·rows·MaxFeatures bytes per
// split. Zero keeps the whole vocabulary, which on WiLI's character set
// needs tens of gigabytes.
type FeaturesConfig struct {
	Extractor   string `yaml:"extractor"`
	Analyzer    string `yaml:"analyzer"`
	NgramMin    int    `yaml:"ngram_min"`
	NgramMax    int    `yaml:"ngram_max"`
	MinDF       int    `yaml:"min_df"`
	MaxFeatures int    `yaml:"max_features"`
	Lowercase   bool   `yaml:"lowercase"`
}

// DefaultMaxFeatures keeps the most frequent terms of the train split.
const DefaultMaxFeatures = 2000

// ReportConfig configures the result table and plot.
type ReportConfig struct {
	BaselineClasses int    `yaml:"baseline_classes"`
	HistoryPlot     string `yaml:"history_plot"`
}

// LoggingConfig configures pkg/log.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Overrides captures CLI supplied values. Zero values leave the config
// untouched.
type Overrides struct {
	LogLevel  string
	Epochs    int
	OutputDir string
	DataPath  string
}

// Default returns the configuration used when a key is absent.
func Default() *Config {
	return &Config{
		Optimizer: OptimizerConfig{InitialLR: 0.0001},
		Training: TrainingConfig{
			Epochs:    20,
			BatchSize: 32,
			Shuffle:   true,
			Seed:      42,
		},
		Model: ModelConfig{
			Name:        "mlp-3layer-tfidf-50",
			HiddenUnits: 512,
			OutputDir:   ".",
		},
		Data: DataConfig{
			Provider:           "wili",
			ValidationFraction: 0.1,
		},
		Features: FeaturesConfig{
			Extractor:   "tfidf",
			Analyzer:    "char",
			NgramMin:    1,
			NgramMax:    1,
			MinDF:       1,
			MaxFeatures: DefaultMaxFeatures,
		},
		Report:  ReportConfig{BaselineClasses: 211},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a Config from the YAML file at path, filling absent keys with
// defaults, and validates it.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides reads the YAML file at path, applies o and validates
// the result, so an override can supply a key the file leaves out.
func LoadWithOverrides(path string, o Overrides) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.GetLoggerWithName("config").Debug("Configuration loaded",
		log.PathKey, path,
		log.ModelNameKey, cfg.Model.Name,
		log.EpochsKey, cfg.Training.Epochs,
		log.LearningRateKey, cfg.Optimizer.InitialLR,
	)
	return cfg, nil
}

// Parse decodes YAML from r on top of Default. It does not validate.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Epochs > 0 {
		c.Training.Epochs = o.Epochs
	}
	if o.OutputDir != "" {
		c.Model.OutputDir = o.OutputDir
	}
	if o.DataPath != "" {
		c.Data.Path = o.DataPath
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Optimizer.InitialLR <= 0 {
		return errors.NewValidationError("optimizer.initial_lr", "must be > 0", c.Optimizer.InitialLR)
	}
	if c.Training.Epochs <= 0 {
		return errors.NewValidationError("training.epochs", "must be > 0", c.Training.Epochs)
	}
	if c.Training.BatchSize <= 0 {
		return errors.NewValidationError("training.batch_size", "must be > 0", c.Training.BatchSize)
	}
	if c.Training.EarlyStoppingPatience < 0 {
		return errors.NewValidationError("training.early_stopping_patience", "must be >= 0", c.Training.EarlyStoppingPatience)
	}
	if c.Model.Name == "" {
		return errors.NewValidationError("model.name", "is required", c.Model.Name)
	}
	if c.Model.HiddenUnits <= 0 {
		return errors.NewValidationError("model.hidden_units", "must be > 0", c.Model.HiddenUnits)
	}
	if c.Data.Provider == "" {
		return errors.NewValidationError("data.provider", "is required", c.Data.Provider)
	}
	if c.Data.Provider == "wili" && c.Data.Path == "" {
		return errors.NewValidationError("data.path", "is required for the wili provider", c.Data.Path)
	}
	if c.Data.ValidationFraction <= 0 || c.Data.ValidationFraction >= 1 {
		return errors.NewValidationError("data.validation_fraction", "must be in (0, 1)", c.Data.ValidationFraction)
	}
	if c.Features.Extractor == "" {
		return errors.NewValidationError("features.extractor", "is required", c.Features.Extractor)
	}
	if c.Features.NgramMin < 1 || c.Features.NgramMax < c.Features.NgramMin {
		return errors.NewValidationError("features.ngram_min/ngram_max", "need 1 <= ngram_min <= ngram_max",
			[2]int{c.Features.NgramMin, c.Features.NgramMax})
	}
	if c.Features.MaxFeatures < 0 {
		return errors.NewValidationError("features.max_features", "must be >= 0", c.Features.MaxFeatures)
	}
	if c.Report.BaselineClasses <= 0 {
		return errors.NewValidationError("report.baseline_classes", "must be > 0", c.Report.BaselineClasses)
	}
	if _, err := log.ToLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Model.OutputDir == "" {
		c.Model.OutputDir = "."
	}
	return nil
}

// ModelPath is where the trained network is written.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Model.OutputDir, c.Model.Name+".h5")
}

// MetadataPath is where the model's JSON sidecar is written.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.Model.OutputDir, c.Model.Name+".json")
}
