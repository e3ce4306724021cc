package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/anemolab/anemo/internal/model"
)

// EncodeMovingAverages writes one JSON object per record to w, newline
// delimited, in the order given (region-then-time from the aggregation
// stage).
func EncodeMovingAverages(w io.Writer, records []model.MovingAverageRecord) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteMovingAveragesJSONL writes Output B as JSONL.
func WriteMovingAveragesJSONL(path string, records []model.MovingAverageRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := EncodeMovingAverages(f, records); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	log.Info("moving averages written", "path", path, "records", len(records), "format", "jsonl")
	return nil
}
