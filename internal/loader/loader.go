// Package loader loads and validates the anemod YAML configuration.
//
// Missing fields fall back to the documented defaults in the config
// package; validation failures are collected and reported together so an
// operator fixes one round of errors, not one error per run.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	appconfig "github.com/anemolab/anemo/config"
	"github.com/anemolab/anemo/internal/errors"
)

// Config is the complete anemod configuration.
type Config struct {
	// Input configures dataset ingestion.
	Input InputConfig `yaml:"input"`

	// Pipeline configures the worker pool.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Output configures result serialization.
	Output OutputConfig `yaml:"output"`

	// Percentiles configures optional DDSketch percentiles in Output A.
	Percentiles PercentileConfig `yaml:"percentiles"`

	// RunStore configures run-history persistence.
	RunStore RunStoreConfig `yaml:"runstore"`

	// Logging configures the global logger.
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig configures dataset ingestion.
type InputConfig struct {
	// Path is the input CSV file.
	Path string `yaml:"path"`
}

// PipelineConfig configures the worker pool.
type PipelineConfig struct {
	// Workers is the number of concurrent partition workers. Must be
	// positive. It affects throughput only, never output contents.
	Workers int `yaml:"workers"`
}

// OutputConfig configures result serialization.
type OutputConfig struct {
	// SummaryPath is where Output A (the per-run summary) is written.
	SummaryPath string `yaml:"summary_path"`

	// MovingAveragesPath is where Output B is written.
	MovingAveragesPath string `yaml:"moving_averages_path"`

	// Format selects the Output B encoding: "jsonl" or "parquet".
	Format string `yaml:"format"`

	// Compression is the parquet codec (zstd, snappy, lz4, gzip, none).
	// Ignored for jsonl output.
	Compression string `yaml:"compression"`
}

// PercentileConfig configures optional percentile collection.
type PercentileConfig struct {
	// Enabled turns on per-station DDSketch percentiles in Output A.
	Enabled bool `yaml:"enabled"`

	// Accuracy is the DDSketch relative accuracy.
	Accuracy float64 `yaml:"accuracy"`
}

// RunStoreConfig configures run-history persistence.
type RunStoreConfig struct {
	// Enabled turns on run recording.
	Enabled bool `yaml:"enabled"`

	// Path is the DuckDB database file.
	Path string `yaml:"path"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON selects JSON log output instead of text.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{Path: appconfig.DefaultInputPath},
		Pipeline: PipelineConfig{
			Workers: appconfig.DefaultWorkers,
		},
		Output: OutputConfig{
			SummaryPath:        appconfig.DefaultSummaryPath,
			MovingAveragesPath: appconfig.DefaultMovingAvgPath,
			Format:             appconfig.DefaultOutputFormat,
			Compression:        appconfig.DefaultParquetCompression,
		},
		Percentiles: PercentileConfig{
			Enabled:  false,
			Accuracy: appconfig.DefaultPercentileAccuracy,
		},
		RunStore: RunStoreConfig{
			Enabled: true,
			Path:    appconfig.DefaultRunStorePath,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses the configuration file, fills in defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields the YAML zeroed out (e.g. an explicit empty
// string for a path).
func (c *Config) applyDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = appconfig.DefaultInputPath
	}
	if c.Output.SummaryPath == "" {
		c.Output.SummaryPath = appconfig.DefaultSummaryPath
	}
	if c.Output.MovingAveragesPath == "" {
		c.Output.MovingAveragesPath = appconfig.DefaultMovingAvgPath
	}
	if c.Output.Format == "" {
		c.Output.Format = appconfig.DefaultOutputFormat
	}
	if c.Output.Compression == "" {
		c.Output.Compression = appconfig.DefaultParquetCompression
	}
	if c.Percentiles.Accuracy <= 0 {
		c.Percentiles.Accuracy = appconfig.DefaultPercentileAccuracy
	}
	if c.RunStore.Enabled && c.RunStore.Path == "" {
		c.RunStore.Path = appconfig.DefaultRunStorePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration, collecting every problem.
func (c *Config) Validate() error {
	v := errors.NewValidationErrors()

	if c.Pipeline.Workers <= 0 {
		v.Add(errors.Wrapf(errors.ErrInvalidWorkers, "pipeline.workers = %d", c.Pipeline.Workers))
	}

	switch c.Output.Format {
	case "jsonl", "parquet":
	default:
		v.Add(errors.Wrapf(errors.ErrInvalidFormat, "output.format = %q", c.Output.Format))
	}

	switch c.Output.Compression {
	case "zstd", "snappy", "lz4", "gzip", "none", "":
	default:
		v.AddField("output.compression", fmt.Sprintf("unknown codec %q", c.Output.Compression))
	}

	if c.Percentiles.Enabled && (c.Percentiles.Accuracy <= 0 || c.Percentiles.Accuracy >= 1) {
		v.AddField("percentiles.accuracy", "must be in (0, 1)")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.AddField("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}

	return v.Err()
}
