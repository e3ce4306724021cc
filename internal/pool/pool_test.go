package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anemolab/anemo/internal/dataset"
	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/ingest"
	"github.com/anemolab/anemo/internal/model"
	"github.com/anemolab/anemo/internal/stats"
)

func testRows(t *testing.T) []model.Row {
	t.Helper()
	start, err := time.ParseInLocation(model.TimestampLayout, "2025-07-01 00:00:00", time.UTC)
	require.NoError(t, err)

	rows, _ := ingest.Generate(ingest.GeneratorConfig{
		Stations:       9,
		RowsPerStation: 120,
		AnomalyRate:    0.03,
		Start:          start,
		Seed:           7,
	})
	return rows
}

func TestPool_InvalidWorkers(t *testing.T) {
	for _, workers := range []int{0, -1, -100} {
		_, err := New(workers, stats.New(nil))
		require.ErrorIs(t, err, errors.ErrInvalidWorkers, "workers=%d", workers)
	}
}

func TestPool_AllPartitionsProcessed(t *testing.T) {
	ds, err := dataset.New(testRows(t))
	require.NoError(t, err)

	p, err := New(4, stats.New(nil))
	require.NoError(t, err)

	results, err := p.Run(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, ds.StationCount(), results.Len())

	for _, station := range ds.Stations() {
		m, ok := results.Get(station)
		require.True(t, ok, "missing result for %s", station)
		require.Equal(t, station, m.Station)
		require.Equal(t, len(ds.Partition(station)), m.Rows)
	}
}

func TestPool_WorkerCountInvariance(t *testing.T) {
	// The primary property of the whole design: identical results and
	// identical per-row anomaly flags for any worker count.
	type outcome struct {
		results map[string]model.StationMetrics
		flags   [][model.MetricCount]bool
	}

	run := func(workers int) outcome {
		// Fresh rows each run: workers write the anomaly flags in place.
		ds, err := dataset.New(testRows(t))
		require.NoError(t, err)

		p, err := New(workers, stats.New(nil))
		require.NoError(t, err)

		results, err := p.Run(context.Background(), ds)
		require.NoError(t, err)

		flags := make([][model.MetricCount]bool, ds.Len())
		for i, row := range ds.Rows() {
			flags[i] = row.Anomalous
		}
		return outcome{results: results.Snapshot(), flags: flags}
	}

	baseline := run(1)
	for _, workers := range []int{2, 4, 16} {
		got := run(workers)
		require.Equal(t, baseline.results, got.results, "workers=%d", workers)
		require.Equal(t, baseline.flags, got.flags, "workers=%d", workers)
	}
}

func TestPool_MoreWorkersThanPartitions(t *testing.T) {
	rows := testRows(t)[:240] // 2 stations
	ds, err := dataset.New(rows)
	require.NoError(t, err)

	p, err := New(32, stats.New(nil))
	require.NoError(t, err)

	results, err := p.Run(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, ds.StationCount(), results.Len())
}

func TestPool_CancelledContext(t *testing.T) {
	ds, err := dataset.New(testRows(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := New(4, stats.New(nil))
	require.NoError(t, err)

	_, err = p.Run(ctx, ds)
	require.ErrorIs(t, err, context.Canceled)
}
