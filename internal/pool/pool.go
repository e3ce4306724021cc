// Package pool provides the partition worker pool and its two shared
// structures: the work queue of pending station keys and the result
// aggregator.
//
// Workers cooperate only through those structures plus the disjoint
// per-partition anomaly-flag writes in the shared row slice. There is no
// cross-worker waiting except the final join barrier, and the worker count
// never affects output values, only wall-clock time.
package pool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/anemolab/anemo/internal/dataset"
	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/model"
	"github.com/anemolab/anemo/internal/stats"
)

var log = logging.Component("pool")

// Pool runs a fixed set of workers over a dataset's partitions.
type Pool struct {
	workers int
	engine  *stats.Engine
}

// New creates a worker pool. workers must be positive; the check happens
// here so a bad configuration fails before any processing begins.
func New(workers int, engine *stats.Engine) (*Pool, error) {
	if workers <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidWorkers, "got %d", workers)
	}
	return &Pool{workers: workers, engine: engine}, nil
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Run drains the dataset's partitions and returns the aggregated results.
//
// Every station key is claimed exactly once; the claiming worker analyzes
// the partition, writes its rows' anomaly flags, and inserts the resulting
// StationMetrics whole. Run returns only after every worker has terminated,
// so the caller may rely on it as a full barrier: when Run returns, all
// flags are final and all results are present.
//
// A panic in the statistics engine aborts the batch; there are no
// partition-level retries or partial results.
func (p *Pool) Run(ctx context.Context, ds *dataset.Dataset) (*Results, error) {
	queue := NewQueue(ds.Stations())
	results := NewResults(ds.StationCount())

	log.Info("draining partitions",
		"workers", p.workers,
		"stations", queue.Size(),
		"rows", ds.Len())

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.worker(ctx, ds, queue, results)
		})
	}

	// Full join barrier. Nothing downstream may run before this returns.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("partitions drained", "results", results.Len())
	return results, nil
}

// worker loops: claim a key, analyze its partition, store the result.
// It exits when the queue is empty or the context is cancelled.
func (p *Pool) worker(ctx context.Context, ds *dataset.Dataset, queue *Queue, results *Results) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		station, ok := queue.Take()
		if !ok {
			return nil
		}

		metrics, err := p.analyze(station, ds)
		if err != nil {
			return err
		}

		if err := results.Put(station, metrics); err != nil {
			return err
		}

		log.Debug("partition analyzed",
			"station", station,
			"rows", metrics.Rows,
			"concurrent_periods", metrics.ConcurrentAnomalyPeriods)
	}
}

// analyze invokes the engine with panic recovery. A recovered panic is a
// fatal error for the whole batch, surfaced to the operator instead of a
// silently degraded output.
func (p *Pool) analyze(station string, ds *dataset.Dataset) (metrics model.StationMetrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic during partition analysis", "station", station, "panic", r)
			err = errors.Wrapf(errors.ErrPartitionPanic,
				"station %q: %s", station, fmt.Sprint(r))
		}
	}()

	metrics = p.engine.AnalyzePartition(station, ds.Rows(), ds.Partition(station))
	return metrics, nil
}
