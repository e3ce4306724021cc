package runstore

import (
	"context"
	"database/sql"
	"fmt"
)

// DatasetReport summarizes determinism verification for one dataset.
//
// The pipeline's primary correctness property is that outputs are
// byte-for-byte identical regardless of worker count. Runs over the same
// dataset fingerprint must therefore agree on both output fingerprints;
// more than one distinct value for either is a determinism violation.
type DatasetReport struct {
	Dataset        string
	Runs           int
	WorkerCounts   []int
	SummaryHashes  int
	AveragesHashes int
	MinElapsedMs   float64
	MaxElapsedMs   float64
}

// Consistent reports whether every recorded run over this dataset produced
// identical outputs.
func (r *DatasetReport) Consistent() bool {
	return r.SummaryHashes <= 1 && r.AveragesHashes <= 1
}

// VerifyDataset checks output-fingerprint agreement across all runs over
// the given dataset fingerprint.
func (s *Store) VerifyDataset(ctx context.Context, dataset string) (DatasetReport, error) {
	report := DatasetReport{Dataset: dataset}

	if err := s.checkOpen(); err != nil {
		return report, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	const q = `
SELECT COUNT(*),
	COUNT(DISTINCT summary_hash),
	COUNT(DISTINCT averages_hash),
	MIN(elapsed_ms),
	MAX(elapsed_ms)
FROM runs WHERE dataset = ?`

	// MIN/MAX are NULL when no runs match.
	var minElapsed, maxElapsed sql.NullFloat64
	row := s.db.QueryRowContext(ctx, q, dataset)
	if err := row.Scan(&report.Runs, &report.SummaryHashes, &report.AveragesHashes,
		&minElapsed, &maxElapsed); err != nil {
		return report, fmt.Errorf("verify dataset: %w", err)
	}
	report.MinElapsedMs = minElapsed.Float64
	report.MaxElapsedMs = maxElapsed.Float64

	const wq = `SELECT DISTINCT workers FROM runs WHERE dataset = ? ORDER BY workers`
	rows, err := s.db.QueryContext(ctx, wq, dataset)
	if err != nil {
		return report, fmt.Errorf("query worker counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return report, fmt.Errorf("scan worker count: %w", err)
		}
		report.WorkerCounts = append(report.WorkerCounts, w)
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("iterate worker counts: %w", err)
	}

	return report, nil
}

// VerifyAll runs VerifyDataset for every dataset seen by the store.
func (s *Store) VerifyAll(ctx context.Context) ([]DatasetReport, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	qctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, `SELECT DISTINCT dataset FROM runs ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}

	var datasets []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	rows.Close()

	reports := make([]DatasetReport, 0, len(datasets))
	for _, d := range datasets {
		report, err := s.VerifyDataset(ctx, d)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
