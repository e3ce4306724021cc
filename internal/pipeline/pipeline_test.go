package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anemolab/anemo/internal/ingest"
	"github.com/anemolab/anemo/internal/loader"
	"github.com/anemolab/anemo/internal/model"
)

// fixtureRows builds 3 stations x 100 rows of mildly-varying baseline with
// exactly one large temperature outlier on STA-002.
func fixtureRows(t *testing.T) []model.Row {
	t.Helper()
	start, err := time.ParseInLocation(model.TimestampLayout, "2025-07-01 00:00:00", time.UTC)
	require.NoError(t, err)

	regions := map[string]string{"STA-001": "south", "STA-002": "south", "STA-003": "north"}

	var rows []model.Row
	for _, station := range []string{"STA-001", "STA-002", "STA-003"} {
		for i := 0; i < 100; i++ {
			ts := start.Add(time.Duration(i) * time.Minute)
			row := model.Row{
				TimestampMs: ts.UnixMilli(),
				Timestamp:   ts.Format(model.TimestampLayout),
				Station:     station,
				Region:      regions[station],
			}
			row.Values[model.MetricTemperature] = 20.0 + float64(i%2)
			row.Values[model.MetricHumidity] = 55.0 + float64(i%3)
			row.Values[model.MetricPressure] = 1010.0 + float64(i%2)
			rows = append(rows, row)
		}
	}

	// One clear outlier: row 50 of STA-002.
	rows[150].Values[model.MetricTemperature] = 500.0
	return rows
}

func TestExecute_DetectsInjectedOutlier(t *testing.T) {
	res, err := Execute(context.Background(), fixtureRows(t), 4, nil)
	require.NoError(t, err)

	require.Equal(t, 300, res.Rows)
	require.Equal(t, 3, res.Stations)
	require.Equal(t, 299, res.CleanRows)
	require.Len(t, res.MovingAverages, 299)

	// STA-002: 1 of 100 temperature readings is anomalous.
	s2 := res.Summary.Stations["STA-002"]
	require.Equal(t, 1.0, s2.AnomalyPercentages["temperature"])
	require.Equal(t, 0.0, s2.AnomalyPercentages["humidity"])
	require.Equal(t, 0.0, s2.AnomalyPercentages["pressure"])
	require.EqualValues(t, 0, s2.ConcurrentAnomalyPeriods)

	// The untouched stations are entirely clean.
	for _, station := range []string{"STA-001", "STA-003"} {
		s := res.Summary.Stations[station]
		for metric, pct := range s.AnomalyPercentages {
			require.Zero(t, pct, "%s %s", station, metric)
		}
	}
}

func TestExecute_WorkerCountInvariance(t *testing.T) {
	baseline, err := Execute(context.Background(), fixtureRows(t), 1, nil)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		res, err := Execute(context.Background(), fixtureRows(t), workers, nil)
		require.NoError(t, err)

		require.Equal(t, baseline.SummaryHash, res.SummaryHash, "workers=%d", workers)
		require.Equal(t, baseline.AveragesHash, res.AveragesHash, "workers=%d", workers)
		require.Equal(t, baseline.DatasetHash, res.DatasetHash, "workers=%d", workers)

		// Not just the hashes: the full record streams are identical.
		require.Equal(t, baseline.MovingAverages, res.MovingAverages, "workers=%d", workers)
		require.Equal(t, baseline.Summary.Stations, res.Summary.Stations, "workers=%d", workers)
	}
}

func TestExecute_EmptyInput(t *testing.T) {
	_, err := Execute(context.Background(), nil, 4, nil)
	require.Error(t, err)
}

func TestExecute_InvalidWorkers(t *testing.T) {
	_, err := Execute(context.Background(), fixtureRows(t), 0, nil)
	require.Error(t, err)
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "readings.csv")
	require.NoError(t, ingest.WriteCSV(inputPath, fixtureRows(t)))

	cfg := loader.DefaultConfig()
	cfg.Input.Path = inputPath
	cfg.Pipeline.Workers = 4
	cfg.Output.SummaryPath = filepath.Join(dir, "summary.json")
	cfg.Output.MovingAveragesPath = filepath.Join(dir, "averages.jsonl")
	cfg.Output.Format = "jsonl"
	cfg.RunStore.Enabled = false
	require.NoError(t, cfg.Validate())

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	// Output A parses and matches the in-memory summary.
	data, err := os.ReadFile(cfg.Output.SummaryPath)
	require.NoError(t, err)

	var doc struct {
		ElapsedMs float64 `json:"elapsed_ms"`
		Stations  map[string]struct {
			AnomalyPercentages map[string]float64 `json:"anomaly_percentages"`
		} `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Stations, 3)
	require.Equal(t, 1.0, doc.Stations["STA-002"].AnomalyPercentages["temperature"])

	// Output B has one line per clean row.
	raw, err := os.ReadFile(cfg.Output.MovingAveragesPath)
	require.NoError(t, err)
	lines := 0
	for _, b := range raw {
		if b == '\n' {
			lines++
		}
	}
	require.Equal(t, res.CleanRows, lines)
}

func TestRun_ParquetOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "readings.csv")
	require.NoError(t, ingest.WriteCSV(inputPath, fixtureRows(t)))

	cfg := loader.DefaultConfig()
	cfg.Input.Path = inputPath
	cfg.Pipeline.Workers = 2
	cfg.Output.SummaryPath = filepath.Join(dir, "summary.json")
	cfg.Output.MovingAveragesPath = filepath.Join(dir, "averages.parquet")
	cfg.Output.Format = "parquet"
	cfg.Output.Compression = "zstd"
	cfg.RunStore.Enabled = false

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	fi, err := os.Stat(cfg.Output.MovingAveragesPath)
	require.NoError(t, err)
	require.Positive(t, fi.Size())
}

func TestRun_MissingInput(t *testing.T) {
	cfg := loader.DefaultConfig()
	cfg.Input.Path = filepath.Join(t.TempDir(), "absent.csv")
	cfg.RunStore.Enabled = false

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
}
