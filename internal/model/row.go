package model

import "time"

// Metric identifies one of the three observed metrics.
type Metric int

const (
	// MetricTemperature is the air temperature reading.
	MetricTemperature Metric = iota
	// MetricHumidity is the relative humidity reading.
	MetricHumidity
	// MetricPressure is the barometric pressure reading.
	MetricPressure

	// MetricCount is the number of metrics per row.
	MetricCount = 3
)

// String returns the canonical metric name.
func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricHumidity:
		return "humidity"
	case MetricPressure:
		return "pressure"
	default:
		return "unknown"
	}
}

// Metrics lists all metrics in canonical order.
var Metrics = [MetricCount]Metric{MetricTemperature, MetricHumidity, MetricPressure}

// TimestampLayout is the textual timestamp format used by the input CSV
// and echoed back in moving-average records.
const TimestampLayout = "2006-01-02 15:04:05"

// Row represents a single observation from one station.
//
// Rows are stored in one shared slice. Everything except the Anomalous
// flags is read-only after ingestion. The flags are written without
// synchronization, which is safe only because each row index belongs to
// exactly one station partition, processed by exactly one worker.
type Row struct {
	// TimestampMs is the observation time in Unix milliseconds.
	TimestampMs int64

	// Timestamp is the original textual timestamp, kept for echo-back.
	Timestamp string

	// Station is the natural partitioning key.
	Station string

	// Region is the secondary grouping key for moving averages.
	Region string

	// Values holds the metric readings, indexed by Metric.
	Values [MetricCount]float64

	// Anomalous holds the per-metric anomaly flags, indexed by Metric.
	// Written exactly once by the owning partition's worker.
	Anomalous [MetricCount]bool

	// Seq is the original input position. It breaks timestamp ties in the
	// global sort so output is deterministic.
	Seq int
}

// TimestampTime returns the timestamp as a time.Time.
func (r *Row) TimestampTime() time.Time {
	return time.UnixMilli(r.TimestampMs)
}

// Clean reports whether no anomaly flag is set on any metric.
func (r *Row) Clean() bool {
	return !r.Anomalous[MetricTemperature] &&
		!r.Anomalous[MetricHumidity] &&
		!r.Anomalous[MetricPressure]
}
