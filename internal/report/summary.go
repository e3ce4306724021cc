// Package report serializes batch results: the per-run summary (Output A),
// moving-average records (Output B) as JSONL or Parquet, and deterministic
// content fingerprints used to verify that worker count never changes the
// outputs.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/model"
)

var log = logging.Component("report")

// BuildSummary assembles Output A from the aggregated station results.
// Station keys are serialized in sorted order (encoding/json sorts map
// keys), making the document independent of worker scheduling.
func BuildSummary(elapsedMs float64, results map[string]model.StationMetrics) model.RunSummary {
	summary := model.RunSummary{
		ElapsedMs: elapsedMs,
		Stations:  make(map[string]model.StationSummary, len(results)),
	}
	for station := range results {
		metrics := results[station]
		summary.Stations[station] = metrics.Summarize()
	}
	return summary
}

// WriteSummary writes Output A as indented JSON. A write failure here is
// fatal for the run: the in-memory results are not reconstructable from a
// partial file.
func WriteSummary(path string, summary model.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	log.Info("summary written", "path", path, "stations", len(summary.Stations))
	return nil
}
