// Package aggregation implements the sequential post-barrier stage:
// filter clean rows, globally time-sort them, regroup by region, and emit
// sliding-window moving averages.
//
// This stage is intentionally single-threaded. The window state for a
// region is a strict prefix-dependent computation; parallelizing it would
// require re-deriving sorted order per shard and stitching boundary
// windows, which the design avoids by running after the pool barrier.
package aggregation

import (
	"sort"

	"github.com/anemolab/anemo/config"
	"github.com/anemolab/anemo/internal/dataset"
	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/model"
	"github.com/anemolab/anemo/internal/window"
)

var log = logging.Component("aggregation")

// MovingAverages computes Output B over a fully-annotated dataset.
//
// The caller must only invoke this after every pool worker has terminated;
// the anomaly flags must be final. Records are emitted in region-then-time
// order, regions sorted lexicographically.
func MovingAverages(ds *dataset.Dataset) []model.MovingAverageRecord {
	rows := ds.Rows()

	// (a) Filter out every row carrying any anomaly flag.
	clean := make([]int, 0, len(rows))
	for i := range rows {
		if rows[i].Clean() {
			clean = append(clean, i)
		}
	}

	// (b) Global time sort. A per-partition sort would silently corrupt
	// region windows whenever a region spans multiple stations. Ties are
	// broken by original input order so output is deterministic.
	sort.Slice(clean, func(a, b int) bool {
		ra, rb := &rows[clean[a]], &rows[clean[b]]
		if ra.TimestampMs != rb.TimestampMs {
			return ra.TimestampMs < rb.TimestampMs
		}
		return ra.Seq < rb.Seq
	})

	// (c) Group by region, preserving the time order from (b).
	byRegion := make(map[string][]int, len(ds.Regions()))
	for _, idx := range clean {
		region := rows[idx].Region
		byRegion[region] = append(byRegion[region], idx)
	}

	// (d) One trailing window per region; one record per clean row.
	records := make([]model.MovingAverageRecord, 0, len(clean))
	for _, region := range ds.Regions() {
		win := window.New(config.MovingAverageWindow)
		for _, idx := range byRegion[region] {
			row := &rows[idx]
			win.Push(row.Values)
			means := win.Means()
			records = append(records, model.MovingAverageRecord{
				Timestamp:   row.Timestamp,
				TimestampMs: row.TimestampMs,
				Station:     row.Station,
				Region:      region,
				Temperature: means[model.MetricTemperature],
				Humidity:    means[model.MetricHumidity],
				Pressure:    means[model.MetricPressure],
			})
		}
	}

	log.Info("moving averages computed",
		"clean_rows", len(clean),
		"dropped", len(rows)-len(clean),
		"regions", len(byRegion))

	return records
}
