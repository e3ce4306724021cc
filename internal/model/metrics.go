package model

// StationMetrics is the per-station analysis result.
//
// It is created once by the worker that owns the station's partition,
// inserted whole into the result aggregator, and never mutated afterward.
type StationMetrics struct {
	// Station is the partition key.
	Station string

	// AnomalyPct holds the anomaly percentage per metric, always in [0,100].
	AnomalyPct [MetricCount]float64

	// ConcurrentAnomalyPeriods counts distinct 10-minute buckets in which
	// two or more distinct metrics were anomalous.
	ConcurrentAnomalyPeriods int64

	// Rows is the partition size, kept for diagnostics.
	Rows int

	// Percentiles holds optional per-metric value percentiles.
	// Nil unless percentile collection is enabled.
	Percentiles *StationPercentiles
}

// StationPercentiles holds DDSketch-derived value percentiles per metric.
type StationPercentiles struct {
	P50 [MetricCount]float64 `json:"p50"`
	P95 [MetricCount]float64 `json:"p95"`
	P99 [MetricCount]float64 `json:"p99"`
}

// MovingAverageRecord is one emitted line per clean row, in region-then-time
// order, carrying the trailing window average of each metric.
type MovingAverageRecord struct {
	Timestamp   string  `json:"timestamp"`
	TimestampMs int64   `json:"-"`
	Station     string  `json:"station_id"`
	Region      string  `json:"region"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
}

// Means returns the windowed means indexed by Metric.
func (r *MovingAverageRecord) Means() [MetricCount]float64 {
	return [MetricCount]float64{r.Temperature, r.Humidity, r.Pressure}
}

// StationSummary is the serialized form of StationMetrics in Output A.
type StationSummary struct {
	// AnomalyPercentages maps metric name to anomaly percentage.
	AnomalyPercentages map[string]float64 `json:"anomaly_percentages"`

	// ConcurrentAnomalyPeriods counts multi-metric 10-minute buckets.
	ConcurrentAnomalyPeriods int64 `json:"concurrent_anomaly_periods"`

	// Percentiles is present only when percentile collection is enabled.
	Percentiles map[string]map[string]float64 `json:"percentiles,omitempty"`
}

// RunSummary is Output A: total elapsed time plus per-station results.
// encoding/json sorts map keys, so serialization is independent of the
// order in which workers finished.
type RunSummary struct {
	ElapsedMs float64                   `json:"elapsed_ms"`
	Stations  map[string]StationSummary `json:"stations"`
}

// Summarize converts a StationMetrics into its Output A form.
func (m *StationMetrics) Summarize() StationSummary {
	s := StationSummary{
		AnomalyPercentages:       make(map[string]float64, MetricCount),
		ConcurrentAnomalyPeriods: m.ConcurrentAnomalyPeriods,
	}
	for _, metric := range Metrics {
		s.AnomalyPercentages[metric.String()] = m.AnomalyPct[metric]
	}

	if m.Percentiles != nil {
		s.Percentiles = make(map[string]map[string]float64, MetricCount)
		for _, metric := range Metrics {
			s.Percentiles[metric.String()] = map[string]float64{
				"p50": m.Percentiles.P50[metric],
				"p95": m.Percentiles.P95[metric],
				"p99": m.Percentiles.P99[metric],
			}
		}
	}

	return s
}
