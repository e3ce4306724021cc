// Package pipeline orchestrates one batch run: ingest, partition-parallel
// analysis, the post-barrier sequential aggregation, output serialization,
// and run-history recording.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anemolab/anemo/internal/aggregation"
	"github.com/anemolab/anemo/internal/dataset"
	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/ingest"
	"github.com/anemolab/anemo/internal/loader"
	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/model"
	"github.com/anemolab/anemo/internal/pool"
	"github.com/anemolab/anemo/internal/report"
	"github.com/anemolab/anemo/internal/runstore"
	"github.com/anemolab/anemo/internal/stats"
)

var log = logging.Component("pipeline")

// Result holds everything one batch run produced.
type Result struct {
	RunID          string
	Summary        model.RunSummary
	MovingAverages []model.MovingAverageRecord

	// Content fingerprints. SummaryHash and AveragesHash must be identical
	// across runs over the same dataset, whatever the worker count.
	DatasetHash  string
	SummaryHash  string
	AveragesHash string

	Rows      int
	Stations  int
	CleanRows int
	ElapsedMs float64
}

// Execute runs the core batch over in-memory rows: build the record store,
// drain partitions through the worker pool, then run the sequential
// aggregation stage after the pool barrier.
//
// Elapsed time covers processing only, not ingestion, so runs over the
// same dataset are comparable across input sources.
func Execute(ctx context.Context, rows []model.Row, workers int, engineCfg *stats.Config) (*Result, error) {
	ds, err := dataset.New(rows)
	if err != nil {
		return nil, err
	}

	p, err := pool.New(workers, stats.New(engineCfg))
	if err != nil {
		return nil, err
	}

	start := time.Now()

	results, err := p.Run(ctx, ds)
	if err != nil {
		return nil, err
	}

	// The pool barrier has passed: every anomaly flag is final.
	records := aggregation.MovingAverages(ds)

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0

	summary := report.BuildSummary(elapsedMs, results.Snapshot())

	res := &Result{
		RunID:          uuid.NewString(),
		Summary:        summary,
		MovingAverages: records,
		DatasetHash:    report.FingerprintRows(rows),
		SummaryHash:    report.FingerprintSummary(summary),
		AveragesHash:   report.FingerprintMovingAverages(records),
		Rows:           ds.Len(),
		Stations:       ds.StationCount(),
		CleanRows:      len(records),
		ElapsedMs:      elapsedMs,
	}

	log.Info("batch complete",
		"run_id", res.RunID,
		"workers", workers,
		"rows", res.Rows,
		"stations", res.Stations,
		"clean_rows", res.CleanRows,
		"elapsed_ms", res.ElapsedMs)

	return res, nil
}

// Run executes a full configured run: ingest the CSV, process it, write
// both outputs, and record the run in the run store when enabled.
func Run(ctx context.Context, cfg *loader.Config) (*Result, error) {
	rows, err := ingest.ReadFile(cfg.Input.Path)
	if err != nil {
		return nil, err
	}

	engineCfg := &stats.Config{
		Percentiles:        cfg.Percentiles.Enabled,
		PercentileAccuracy: cfg.Percentiles.Accuracy,
	}

	res, err := Execute(ctx, rows, cfg.Pipeline.Workers, engineCfg)
	if err != nil {
		return nil, err
	}

	if err := writeOutputs(cfg, res); err != nil {
		return nil, err
	}

	if cfg.RunStore.Enabled {
		if err := recordRun(ctx, cfg, res); err != nil {
			// Recording history must not fail an otherwise successful run.
			log.Warn("run not recorded", "error", err)
		}
	}

	return res, nil
}

// writeOutputs serializes Output A and Output B. Failures propagate as
// fatal: partial output files cannot be reconciled with in-memory results.
func writeOutputs(cfg *loader.Config, res *Result) error {
	if err := report.WriteSummary(cfg.Output.SummaryPath, res.Summary); err != nil {
		return err
	}

	switch cfg.Output.Format {
	case "jsonl":
		return report.WriteMovingAveragesJSONL(cfg.Output.MovingAveragesPath, res.MovingAverages)
	case "parquet":
		opts := report.ParquetOptions{
			Compression: report.ParseCompressionType(cfg.Output.Compression),
		}
		return report.WriteMovingAveragesParquet(cfg.Output.MovingAveragesPath, res.MovingAverages, opts)
	default:
		return errors.Wrapf(errors.ErrInvalidFormat, "%q", cfg.Output.Format)
	}
}

func recordRun(ctx context.Context, cfg *loader.Config, res *Result) error {
	store, err := runstore.New(runstore.Config{Path: cfg.RunStore.Path})
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordRun(ctx, runstore.Run{
		ID:           res.RunID,
		StartedAt:    time.Now(),
		Dataset:      res.DatasetHash,
		Workers:      cfg.Pipeline.Workers,
		ElapsedMs:    res.ElapsedMs,
		Rows:         res.Rows,
		Stations:     res.Stations,
		CleanRows:    res.CleanRows,
		SummaryHash:  res.SummaryHash,
		AveragesHash: res.AveragesHash,
	})
}
