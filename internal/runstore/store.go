// Package runstore persists run history to DuckDB.
//
// Every batch run is recorded with its dataset fingerprint, worker count,
// elapsed time, and content fingerprints of both outputs. Because the
// pipeline must produce identical outputs for any worker count, the store
// can verify determinism after the fact: all runs over the same dataset
// must carry the same output fingerprints.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/logging"
)

var log = logging.Component("runstore")

// =============================================================================
// Store Configuration
// =============================================================================

// Config holds store configuration options.
type Config struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path string

	// QueryTimeout is the default timeout for queries.
	QueryTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueryTimeout: 30 * time.Second,
	}
}

// =============================================================================
// Store
// =============================================================================

// Run is one recorded batch run.
type Run struct {
	ID           string
	StartedAt    time.Time
	Dataset      string // input fingerprint
	Workers      int
	ElapsedMs    float64
	Rows         int
	Stations     int
	CleanRows    int
	SummaryHash  string
	AveragesHash string
}

// Store provides run-history persistence.
//
// Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	config Config
	mu     sync.RWMutex
	closed bool
}

// New opens (or creates) the run store and ensures its schema.
func New(cfg Config) (*Store, error) {
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, config: cfg}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            VARCHAR PRIMARY KEY,
	started_at    TIMESTAMP NOT NULL,
	dataset       VARCHAR NOT NULL,
	workers       INTEGER NOT NULL,
	elapsed_ms    DOUBLE NOT NULL,
	rows          INTEGER NOT NULL,
	stations      INTEGER NOT NULL,
	clean_rows    INTEGER NOT NULL,
	summary_hash  VARCHAR NOT NULL,
	averages_hash VARCHAR NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

// =============================================================================
// Operations
// =============================================================================

// RecordRun inserts one run record.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	const q = `
INSERT INTO runs (id, started_at, dataset, workers, elapsed_ms,
	rows, stations, clean_rows, summary_hash, averages_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		run.ID, run.StartedAt.UTC(), run.Dataset, run.Workers, run.ElapsedMs,
		run.Rows, run.Stations, run.CleanRows, run.SummaryHash, run.AveragesHash)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	log.Debug("run recorded", "id", run.ID, "dataset", run.Dataset, "workers", run.Workers)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	const q = `
SELECT id, started_at, dataset, workers, elapsed_ms,
	rows, stations, clean_rows, summary_hash, averages_hash
FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	if err := s.checkOpen(); err != nil {
		return Run{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	const q = `
SELECT id, started_at, dataset, workers, elapsed_ms,
	rows, stations, clean_rows, summary_hash, averages_hash
FROM runs WHERE id = ?`

	rows, err := s.db.QueryContext(ctx, q, id)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, errors.Wrapf(errors.ErrRunNotFound, "id %q", id)
	}
	return runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Dataset, &r.Workers,
			&r.ElapsedMs, &r.Rows, &r.Stations, &r.CleanRows,
			&r.SummaryHash, &r.AveragesHash); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
