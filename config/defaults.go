// Package config provides configuration defaults and fixed algorithm
// constants for the anemo batch engine.
//
// This package defines all configurable constants with documented defaults.
// Users can override the configurable values via config.yaml or CLI flags.
// The algorithm constants are deliberately NOT configurable: two runs are
// only comparable when they apply the same formulas.
package config

// =============================================================================
// Algorithm Constants (fixed for all runs)
// =============================================================================

const (
	// AnomalySigma is the number of standard deviations beyond which a value
	// is flagged anomalous. A value is anomalous iff it lies outside
	// mean ± AnomalySigma * stddev of its own station partition.
	AnomalySigma = 3.0

	// CoOccurrenceBucketMs is the width of the non-overlapping time buckets
	// used for concurrent-anomaly counting: bucketID = timestampMs / width.
	CoOccurrenceBucketMs = 10 * 60 * 1000

	// MovingAverageWindow is the capacity of the per-region trailing window
	// of clean rows used by the sequential aggregation stage.
	MovingAverageWindow = 10
)

// =============================================================================
// Pipeline Defaults
// =============================================================================

const (
	// DefaultWorkers is the number of concurrent partition workers.
	// The worker count affects throughput only, never output contents.
	// Override via config: pipeline.workers or the -workers flag.
	DefaultWorkers = 4

	// DefaultInputPath is the default input CSV location.
	// Override via config: input.path
	DefaultInputPath = "data/readings.csv"

	// DefaultSummaryPath is where the per-run summary (Output A) is written.
	// Override via config: output.summary_path
	DefaultSummaryPath = "data/summary.json"

	// DefaultMovingAvgPath is where moving-average records (Output B) are
	// written. The extension does not select the format; output.format does.
	// Override via config: output.moving_averages_path
	DefaultMovingAvgPath = "data/moving_averages.jsonl"
)

// =============================================================================
// Output Defaults
// =============================================================================

const (
	// DefaultOutputFormat selects the Output B encoding: "jsonl" or "parquet".
	// Override via config: output.format
	DefaultOutputFormat = "jsonl"

	// DefaultParquetCompression is the compression codec for parquet output.
	// Override via config: output.compression
	DefaultParquetCompression = "zstd"
)

// =============================================================================
// Percentile Defaults
// =============================================================================

const (
	// DefaultPercentileAccuracy is the DDSketch relative accuracy used when
	// optional per-station percentiles are enabled. 1% matches the upstream
	// DDSketch default.
	// Override via config: percentiles.accuracy
	DefaultPercentileAccuracy = 0.01
)

// =============================================================================
// Run Store Defaults
// =============================================================================

const (
	// DefaultRunStorePath is the DuckDB database recording run history.
	// Override via config: runstore.path
	DefaultRunStorePath = "anemo.db"

	// DefaultReportLimit is how many runs `anemod report` lists by default.
	DefaultReportLimit = 20
)
