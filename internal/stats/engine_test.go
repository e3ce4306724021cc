package stats

import (
	"math"
	"testing"

	"github.com/anemolab/anemo/internal/model"
)

// baselineRows builds n rows for one station with mild alternating values
// on temperature and humidity and a constant pressure, one row per minute.
// The alternation gives each varying metric a small nonzero stddev so a
// large outlier is guaranteed past the 3-sigma band.
func baselineRows(n int) []model.Row {
	rows := make([]model.Row, n)
	for i := range rows {
		rows[i] = model.Row{
			TimestampMs: int64(i) * 60_000,
			Station:     "STA-001",
			Region:      "south",
			Seq:         i,
		}
		rows[i].Values[model.MetricTemperature] = 10.0 + float64(i%2)*2.0
		rows[i].Values[model.MetricHumidity] = 50.0 + float64(i%2)*2.0
		rows[i].Values[model.MetricPressure] = 1013.0
	}
	return rows
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func TestEngine_NoAnomalies(t *testing.T) {
	rows := baselineRows(40)
	e := New(nil)

	m := e.AnalyzePartition("STA-001", rows, allIndices(40))

	if m.Station != "STA-001" {
		t.Errorf("station = %q", m.Station)
	}
	if m.Rows != 40 {
		t.Errorf("rows = %d, want 40", m.Rows)
	}
	for _, metric := range model.Metrics {
		if m.AnomalyPct[metric] != 0 {
			t.Errorf("%s anomaly pct = %v, want 0", metric, m.AnomalyPct[metric])
		}
	}
	if m.ConcurrentAnomalyPeriods != 0 {
		t.Errorf("concurrent periods = %d, want 0", m.ConcurrentAnomalyPeriods)
	}
	for i := range rows {
		if !rows[i].Clean() {
			t.Errorf("row %d flagged without an outlier", i)
		}
	}
}

func TestEngine_ZeroStddev(t *testing.T) {
	// A constant series has stddev 0. Nothing may be flagged and the
	// percentage must be an exact 0, never NaN.
	rows := make([]model.Row, 10)
	for i := range rows {
		rows[i].TimestampMs = int64(i) * 60_000
		rows[i].Values = [model.MetricCount]float64{20.0, 55.0, 1013.0}
	}

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(10))

	for _, metric := range model.Metrics {
		pct := m.AnomalyPct[metric]
		if math.IsNaN(pct) {
			t.Fatalf("%s anomaly pct is NaN", metric)
		}
		if pct != 0 {
			t.Errorf("%s anomaly pct = %v, want 0", metric, pct)
		}
	}
}

func TestEngine_FlagsOutlier(t *testing.T) {
	rows := baselineRows(40)
	rows[12].Values[model.MetricTemperature] = 200.0

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(40))

	if !rows[12].Anomalous[model.MetricTemperature] {
		t.Error("outlier row not flagged")
	}
	if rows[12].Anomalous[model.MetricHumidity] || rows[12].Anomalous[model.MetricPressure] {
		t.Error("outlier row flagged on the wrong metric")
	}

	want := float64(1) / 40.0 * 100.0
	if m.AnomalyPct[model.MetricTemperature] != want {
		t.Errorf("temperature pct = %v, want %v", m.AnomalyPct[model.MetricTemperature], want)
	}
	if m.AnomalyPct[model.MetricHumidity] != 0 {
		t.Errorf("humidity pct = %v, want 0", m.AnomalyPct[model.MetricHumidity])
	}

	// A single anomalous metric never counts as a concurrent period.
	if m.ConcurrentAnomalyPeriods != 0 {
		t.Errorf("concurrent periods = %d, want 0", m.ConcurrentAnomalyPeriods)
	}

	flagged := 0
	for i := range rows {
		if !rows[i].Clean() {
			flagged++
		}
	}
	if flagged != 1 {
		t.Errorf("%d rows flagged, want 1", flagged)
	}
}

func TestEngine_ConcurrentPeriod_SameBucket(t *testing.T) {
	// Rows 10..19 fall in the second 10-minute bucket. A temperature
	// outlier at row 12 and a humidity outlier at row 15 are distinct
	// metrics in the same bucket: exactly one concurrent period.
	rows := baselineRows(40)
	rows[12].Values[model.MetricTemperature] = 200.0
	rows[15].Values[model.MetricHumidity] = 500.0

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(40))

	if !rows[12].Anomalous[model.MetricTemperature] {
		t.Fatal("temperature outlier not flagged")
	}
	if !rows[15].Anomalous[model.MetricHumidity] {
		t.Fatal("humidity outlier not flagged")
	}
	if m.ConcurrentAnomalyPeriods != 1 {
		t.Errorf("concurrent periods = %d, want 1", m.ConcurrentAnomalyPeriods)
	}
}

func TestEngine_ConcurrentPeriod_DifferentBuckets(t *testing.T) {
	// Outliers on distinct metrics but in different 10-minute buckets
	// (rows 12 and 25) never form a concurrent period.
	rows := baselineRows(40)
	rows[12].Values[model.MetricTemperature] = 200.0
	rows[25].Values[model.MetricHumidity] = 500.0

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(40))

	if m.ConcurrentAnomalyPeriods != 0 {
		t.Errorf("concurrent periods = %d, want 0", m.ConcurrentAnomalyPeriods)
	}
}

func TestEngine_ConcurrentPeriod_SameMetricTwice(t *testing.T) {
	// Two anomalies of the same metric in one bucket count distinct
	// metrics, not distinct rows: no concurrent period.
	rows := baselineRows(40)
	rows[12].Values[model.MetricTemperature] = 200.0
	rows[15].Values[model.MetricTemperature] = 200.0

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(40))

	if !rows[12].Anomalous[model.MetricTemperature] || !rows[15].Anomalous[model.MetricTemperature] {
		t.Fatal("outliers not flagged")
	}
	if m.ConcurrentAnomalyPeriods != 0 {
		t.Errorf("concurrent periods = %d, want 0", m.ConcurrentAnomalyPeriods)
	}

	want := float64(2) / 40.0 * 100.0
	if m.AnomalyPct[model.MetricTemperature] != want {
		t.Errorf("temperature pct = %v, want %v", m.AnomalyPct[model.MetricTemperature], want)
	}
}

func TestEngine_EmptyPartition(t *testing.T) {
	m := New(nil).AnalyzePartition("STA-404", nil, nil)

	if m.Station != "STA-404" {
		t.Errorf("station = %q", m.Station)
	}
	if m.Rows != 0 {
		t.Errorf("rows = %d, want 0", m.Rows)
	}
	for _, metric := range model.Metrics {
		if m.AnomalyPct[metric] != 0 {
			t.Errorf("%s pct = %v, want 0", metric, m.AnomalyPct[metric])
		}
	}
}

func TestEngine_PercentagesBounded(t *testing.T) {
	// Even a pathological partition keeps percentages in [0, 100].
	rows := baselineRows(8)
	for i := range rows {
		if i%2 == 0 {
			rows[i].Values[model.MetricTemperature] = 1000.0
		}
	}

	m := New(nil).AnalyzePartition("STA-001", rows, allIndices(8))

	for _, metric := range model.Metrics {
		pct := m.AnomalyPct[metric]
		if pct < 0 || pct > 100 {
			t.Errorf("%s pct = %v, outside [0, 100]", metric, pct)
		}
	}
}

func TestEngine_Percentiles(t *testing.T) {
	rows := baselineRows(100)
	e := New(&Config{Percentiles: true, PercentileAccuracy: 0.01})

	m := e.AnalyzePartition("STA-001", rows, allIndices(100))

	if m.Percentiles == nil {
		t.Fatal("percentiles not computed")
	}
	// Pressure is constant 1013: every quantile sits within the sketch's
	// relative accuracy of it.
	p50 := m.Percentiles.P50[model.MetricPressure]
	if math.Abs(p50-1013.0) > 1013.0*0.02 {
		t.Errorf("pressure p50 = %v, want ~1013", p50)
	}

	// Percentiles must never affect flags.
	for i := range rows {
		if !rows[i].Clean() {
			t.Errorf("row %d flagged in a clean dataset", i)
		}
	}
}

func TestEngine_DisjointWrites(t *testing.T) {
	// The engine only touches rows named by its indices.
	rows := baselineRows(40)
	rows[5].Values[model.MetricTemperature] = 999.0  // owned outlier
	rows[30].Values[model.MetricTemperature] = 999.0 // foreign row

	owned := allIndices(20)
	New(nil).AnalyzePartition("STA-001", rows, owned)

	if !rows[5].Anomalous[model.MetricTemperature] {
		t.Error("owned outlier not flagged")
	}
	if rows[30].Anomalous[model.MetricTemperature] {
		t.Error("engine wrote a row outside its partition")
	}
}
