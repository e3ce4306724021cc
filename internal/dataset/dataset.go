// Package dataset provides the in-memory record store for one batch run.
//
// A Dataset holds every row in a single shared slice and an index of
// station partitions over it. The partition index is built exactly once and
// is read-only afterward; it assigns every row index to exactly one station.
// That disjointness is the invariant that lets workers write anomaly flags
// into the shared slice without synchronization.
package dataset

import (
	"sort"

	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/model"
)

// Dataset is the record store for one batch run.
//
// Reads are safe from any goroutine. The only permitted concurrent mutation
// is writing a row's anomaly flags through its partition's owner.
type Dataset struct {
	rows       []model.Row
	partitions map[string][]int
	stations   []string
	regions    []string
}

// New builds a Dataset from ingested rows. Row order is preserved and each
// row's Seq is set to its input position. Returns ErrEmptyDataset when rows
// is empty.
func New(rows []model.Row) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.ErrEmptyDataset
	}

	ds := &Dataset{
		rows:       rows,
		partitions: make(map[string][]int),
	}

	regionSet := make(map[string]struct{})
	for i := range ds.rows {
		ds.rows[i].Seq = i
		ds.partitions[ds.rows[i].Station] = append(ds.partitions[ds.rows[i].Station], i)
		regionSet[ds.rows[i].Region] = struct{}{}
	}

	ds.stations = make([]string, 0, len(ds.partitions))
	for station := range ds.partitions {
		ds.stations = append(ds.stations, station)
	}
	sort.Strings(ds.stations)

	ds.regions = make([]string, 0, len(regionSet))
	for region := range regionSet {
		ds.regions = append(ds.regions, region)
	}
	sort.Strings(ds.regions)

	return ds, nil
}

// Rows returns the shared row slice. Callers other than a partition's owner
// must treat the rows as read-only.
func (d *Dataset) Rows() []model.Row {
	return d.rows
}

// Partition returns the row indices for a station, in input order.
// The returned slice must not be modified.
func (d *Dataset) Partition(station string) []int {
	return d.partitions[station]
}

// Stations returns all station keys in sorted order.
func (d *Dataset) Stations() []string {
	return d.stations
}

// Regions returns all region keys in sorted order.
func (d *Dataset) Regions() []string {
	return d.regions
}

// Len returns the total row count.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// StationCount returns the number of partitions.
func (d *Dataset) StationCount() int {
	return len(d.stations)
}
