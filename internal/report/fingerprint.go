package report

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sort"

	"github.com/anemolab/anemo/internal/model"
)

// =============================================================================
// Hash Builder
// =============================================================================

// HashBuilder provides a fluent API for building content fingerprints.
//
// The hash is deterministic: same inputs always produce the same output.
// Order of operations matters, so callers feed fields in a fixed order and
// map keys sorted.
type HashBuilder struct {
	h hash.Hash64
}

// NewHashBuilder creates a new FNV-1a hash builder.
func NewHashBuilder() *HashBuilder {
	return &HashBuilder{h: fnv.New64a()}
}

// String adds a string value to the hash.
func (b *HashBuilder) String(s string) *HashBuilder {
	b.h.Write([]byte(s))
	b.h.Write([]byte{0}) // Separator to avoid collisions
	return b
}

// Int64 adds an int64 value to the hash.
func (b *HashBuilder) Int64(v int64) *HashBuilder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	b.h.Write(buf[:])
	return b
}

// Float adds a float64 value to the hash, using its exact bit pattern so
// two runs match only when they are bit-for-bit identical.
func (b *HashBuilder) Float(v float64) *HashBuilder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	b.h.Write(buf[:])
	return b
}

// Build returns the final hash as a hex string.
func (b *HashBuilder) Build() string {
	return fmt.Sprintf("%016x", b.h.Sum64())
}

// =============================================================================
// Content Fingerprints
// =============================================================================

// FingerprintSummary hashes Output A's station results. Elapsed time is
// deliberately excluded: two runs over the same dataset must fingerprint
// identically no matter how long they took or how many workers ran.
func FingerprintSummary(summary model.RunSummary) string {
	stations := make([]string, 0, len(summary.Stations))
	for station := range summary.Stations {
		stations = append(stations, station)
	}
	sort.Strings(stations)

	b := NewHashBuilder()
	for _, station := range stations {
		s := summary.Stations[station]
		b.String(station)
		for _, m := range model.Metrics {
			b.String(m.String()).Float(s.AnomalyPercentages[m.String()])
		}
		b.Int64(s.ConcurrentAnomalyPeriods)
	}
	return b.Build()
}

// FingerprintMovingAverages hashes Output B in emission order.
func FingerprintMovingAverages(records []model.MovingAverageRecord) string {
	b := NewHashBuilder()
	for i := range records {
		r := &records[i]
		b.String(r.Timestamp).String(r.Station).String(r.Region)
		b.Float(r.Temperature).Float(r.Humidity).Float(r.Pressure)
	}
	return b.Build()
}

// FingerprintRows hashes an input dataset so the run store can group runs
// over the same data.
func FingerprintRows(rows []model.Row) string {
	b := NewHashBuilder()
	for i := range rows {
		r := &rows[i]
		b.String(r.Timestamp).String(r.Station).String(r.Region)
		for _, m := range model.Metrics {
			b.Float(r.Values[m])
		}
	}
	return b.Build()
}
