package ingest

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/anemolab/anemo/internal/model"
)

// regions are assigned round-robin across stations, so most regions span
// multiple stations. That layout is what makes the global time sort in the
// aggregation stage observable.
var regions = []string{"southeast", "northeast", "south", "north", "central-west"}

// Baseline signal parameters per metric: base value, seasonal amplitude,
// and gaussian noise sigma.
var signalParams = [model.MetricCount]struct {
	base, amplitude, noise float64
}{
	{22.0, 8.0, 0.8},    // temperature
	{60.0, 20.0, 2.0},   // humidity
	{1013.0, 10.0, 1.5}, // pressure
}

// InjectedAnomaly records one synthetic outlier for the ground-truth ledger.
type InjectedAnomaly struct {
	Timestamp string
	Station   string
	Metric    model.Metric
}

// GeneratorConfig controls synthetic dataset generation.
type GeneratorConfig struct {
	// Stations is the number of stations to simulate.
	Stations int

	// RowsPerStation is the number of observations per station, one per
	// minute starting at Start.
	RowsPerStation int

	// AnomalyRate is the fraction of rows receiving an injected outlier,
	// in [0, 1].
	AnomalyRate float64

	// Start is the timestamp of each station's first observation.
	Start time.Time

	// Seed makes generation reproducible.
	Seed int64
}

// Generate produces a synthetic dataset: a smooth sinusoidal signal per
// metric with gaussian noise, plus injected outliers far outside the
// 3-sigma band. It returns the rows in station-major order together with
// the ledger of injected anomalies.
func Generate(cfg GeneratorConfig) ([]model.Row, []InjectedAnomaly) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	rows := make([]model.Row, 0, cfg.Stations*cfg.RowsPerStation)
	var injected []InjectedAnomaly

	for s := 0; s < cfg.Stations; s++ {
		station := fmt.Sprintf("STA-%03d", s+1)
		region := regions[s%len(regions)]

		for i := 0; i < cfg.RowsPerStation; i++ {
			ts := cfg.Start.Add(time.Duration(i) * time.Minute)
			row := model.Row{
				TimestampMs: ts.UnixMilli(),
				Timestamp:   ts.UTC().Format(model.TimestampLayout),
				Station:     station,
				Region:      region,
			}

			phase := 2 * math.Pi * float64(i) / float64(cfg.RowsPerStation)
			for _, m := range model.Metrics {
				p := signalParams[m]
				row.Values[m] = p.base + p.amplitude*math.Sin(phase) + rng.NormFloat64()*p.noise
			}

			if rng.Float64() < cfg.AnomalyRate {
				m := model.Metric(rng.Intn(model.MetricCount))
				// Push the value far outside mean ± 3*stddev of the clean
				// signal so the detector is guaranteed to see it.
				offset := signalParams[m].amplitude*4 + signalParams[m].noise*20
				if rng.Intn(2) == 0 {
					offset = -offset
				}
				row.Values[m] += offset
				injected = append(injected, InjectedAnomaly{
					Timestamp: row.Timestamp,
					Station:   station,
					Metric:    m,
				})
			}

			rows = append(rows, row)
		}
	}

	return rows, injected
}

// WriteAnomalyLedger writes the ground-truth ledger of injected anomalies,
// used to validate detection results against what was actually planted.
func WriteAnomalyLedger(path string, anomalies []InjectedAnomaly) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"timestamp", "station_id", "metric"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range anomalies {
		a := &anomalies[i]
		if err := cw.Write([]string{a.Timestamp, a.Station, a.Metric.String()}); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.Close()
}
