package pool

import (
	"sync"

	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/model"
)

// Results is the mutation-protected mapping from station key to computed
// metrics. Each insertion is a single whole-value replacement under the
// lock; no reader can ever observe a partially-written StationMetrics.
type Results struct {
	mu sync.Mutex
	m  map[string]model.StationMetrics
}

// NewResults creates an empty aggregator sized for the expected stations.
func NewResults(capacity int) *Results {
	return &Results{m: make(map[string]model.StationMetrics, capacity)}
}

// Put inserts the metrics for a station. Exactly one worker owns each
// partition, so a second insert for the same key indicates a broken
// exclusivity invariant and is reported as an error.
func (r *Results) Put(station string, metrics model.StationMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[station]; exists {
		return errors.Wrapf(errors.ErrDuplicateResult, "station %q", station)
	}
	r.m[station] = metrics
	return nil
}

// Get returns the metrics for a station.
func (r *Results) Get(station string) (model.StationMetrics, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics, ok := r.m[station]
	return metrics, ok
}

// Len returns the number of stored results.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Snapshot returns a copy of the mapping. Intended for use after the
// worker barrier, but safe at any time.
func (r *Results) Snapshot() map[string]model.StationMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]model.StationMetrics, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}
