// Package stats implements the partition statistics engine.
//
// The engine is a pure per-partition computation: given the shared row
// slice and one station's row indices, it computes population mean and
// standard deviation for each metric, flags 3-sigma outliers, counts
// 10-minute buckets with concurrent anomalies across distinct metrics, and
// returns the station's metrics. It writes each owned row's anomaly flags
// exactly once; it never reads or writes rows outside its indices.
//
// The mean/stddev computation is two-pass (sum, then sum of squared
// deviations) rather than streaming (Welford): the dataset is bounded and
// the outputs must be bit-for-bit reproducible across worker counts.
package stats

import (
	"math"
	"math/bits"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/anemolab/anemo/config"
	"github.com/anemolab/anemo/internal/model"
)

// Config holds engine options.
type Config struct {
	// Percentiles enables per-metric DDSketch percentiles in the result.
	// They supplement the summary and never affect anomaly flags.
	Percentiles bool

	// PercentileAccuracy is the DDSketch relative accuracy.
	PercentileAccuracy float64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Percentiles:        false,
		PercentileAccuracy: config.DefaultPercentileAccuracy,
	}
}

// Engine computes per-partition statistics. It is stateless between calls
// and safe for concurrent use from multiple workers.
type Engine struct {
	sigma         float64
	bucketWidthMs int64
	percentiles   bool
	accuracy      float64
}

// New creates a statistics engine. The sigma multiplier and bucket width
// are fixed algorithm constants, not options.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	accuracy := cfg.PercentileAccuracy
	if accuracy <= 0 {
		accuracy = config.DefaultPercentileAccuracy
	}
	return &Engine{
		sigma:         config.AnomalySigma,
		bucketWidthMs: config.CoOccurrenceBucketMs,
		percentiles:   cfg.Percentiles,
		accuracy:      accuracy,
	}
}

// isAnomaly applies the 3-sigma rule. A zero standard deviation flags
// nothing: a constant series has no outliers and must not divide by zero.
func (e *Engine) isAnomaly(value, mean, stddev float64) bool {
	if stddev == 0 {
		return false
	}
	return value < mean-e.sigma*stddev || value > mean+e.sigma*stddev
}

// AnalyzePartition computes StationMetrics for one partition and sets the
// anomaly flags on every owned row.
//
// rows is the shared row slice; indices are the station's row positions.
// The caller guarantees no other goroutine touches those rows. An empty
// partition yields a zero-valued result.
func (e *Engine) AnalyzePartition(station string, rows []model.Row, indices []int) model.StationMetrics {
	metrics := model.StationMetrics{Station: station, Rows: len(indices)}
	if len(indices) == 0 {
		return metrics
	}

	n := float64(len(indices))

	// Pass 1: sums.
	var sums [model.MetricCount]float64
	for _, idx := range indices {
		for _, m := range model.Metrics {
			sums[m] += rows[idx].Values[m]
		}
	}

	var means [model.MetricCount]float64
	for _, m := range model.Metrics {
		means[m] = sums[m] / n
	}

	// Pass 2: sums of squared deviations.
	var sqSums [model.MetricCount]float64
	for _, idx := range indices {
		for _, m := range model.Metrics {
			d := rows[idx].Values[m] - means[m]
			sqSums[m] += d * d
		}
	}

	var stddevs [model.MetricCount]float64
	for _, m := range model.Metrics {
		stddevs[m] = math.Sqrt(sqSums[m] / n)
	}

	// Flagging pass. Each bucket accumulates a bitmask of which metrics were
	// anomalous anywhere within it; a bucket with >=2 distinct metrics set
	// counts as one concurrent anomaly period.
	var anomalyCounts [model.MetricCount]int64
	buckets := make(map[int64]uint8)

	for _, idx := range indices {
		row := &rows[idx]
		var mask uint8
		for _, m := range model.Metrics {
			if e.isAnomaly(row.Values[m], means[m], stddevs[m]) {
				row.Anomalous[m] = true
				anomalyCounts[m]++
				mask |= 1 << uint(m)
			}
		}
		if mask != 0 {
			bucket := row.TimestampMs / e.bucketWidthMs
			buckets[bucket] |= mask
		}
	}

	for _, mask := range buckets {
		if bits.OnesCount8(mask) >= 2 {
			metrics.ConcurrentAnomalyPeriods++
		}
	}

	for _, m := range model.Metrics {
		metrics.AnomalyPct[m] = float64(anomalyCounts[m]) / n * 100.0
	}

	if e.percentiles {
		metrics.Percentiles = e.computePercentiles(rows, indices)
	}

	return metrics
}

// computePercentiles builds one DDSketch per metric over the partition's
// raw values. Values are inserted in partition order so repeated runs
// produce identical sketches.
func (e *Engine) computePercentiles(rows []model.Row, indices []int) *model.StationPercentiles {
	var sketches [model.MetricCount]*ddsketch.DDSketch
	for _, m := range model.Metrics {
		sketch, err := ddsketch.NewDefaultDDSketch(e.accuracy)
		if err != nil {
			return nil
		}
		sketches[m] = sketch
	}

	for _, idx := range indices {
		for _, m := range model.Metrics {
			// Add only fails for non-finite values, which ingestion rejects.
			_ = sketches[m].Add(rows[idx].Values[m])
		}
	}

	p := &model.StationPercentiles{}
	for _, m := range model.Metrics {
		p.P50[m], _ = sketches[m].GetValueAtQuantile(0.50)
		p.P95[m], _ = sketches[m].GetValueAtQuantile(0.95)
		p.P99[m], _ = sketches[m].GetValueAtQuantile(0.99)
	}
	return p
}
