// Package ingest reads input datasets and generates synthetic ones.
//
// The core pipeline assumes well-formed rows; ingestion is where malformed
// input is rejected. A bad row fails the whole load with its line number
// rather than producing a partial dataset.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/model"
)

var log = logging.Component("ingest")

// Required input columns. Extra columns are ignored.
const (
	colTimestamp = "timestamp"
	colStation   = "station_id"
	colRegion    = "region"
)

// metricColumns maps metric index to its column name.
var metricColumns = [model.MetricCount]string{"temperature", "humidity", "pressure"}

// ReadFile loads a CSV dataset from disk.
func ReadFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	log.Info("dataset loaded", "path", path, "rows", len(rows))
	return rows, nil
}

// Read parses CSV rows from r. The first record must be a header containing
// timestamp, station_id, region, and the three metric columns.
func Read(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	required := []string{colTimestamp, colStation, colRegion,
		metricColumns[0], metricColumns[1], metricColumns[2]}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errors.Wrapf(errors.ErrMissingColumn, "%q", name)
		}
	}

	var rows []model.Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		row, err := parseRow(record, cols, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.ErrEmptyDataset
	}
	return rows, nil
}

func parseRow(record []string, cols map[string]int, line int) (model.Row, error) {
	var row model.Row

	tsText := record[cols[colTimestamp]]
	ts, err := time.ParseInLocation(model.TimestampLayout, tsText, time.UTC)
	if err != nil {
		return row, errors.NewMalformedRow(line, fmt.Sprintf("unparseable timestamp %q", tsText))
	}

	row.Timestamp = tsText
	row.TimestampMs = ts.UnixMilli()
	row.Station = record[cols[colStation]]
	row.Region = record[cols[colRegion]]

	if row.Station == "" {
		return row, errors.NewMalformedRow(line, "empty station_id")
	}
	if row.Region == "" {
		return row, errors.NewMalformedRow(line, "empty region")
	}

	for _, m := range model.Metrics {
		text := record[cols[metricColumns[m]]]
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return row, errors.NewMalformedRow(line,
				fmt.Sprintf("non-numeric %s %q", metricColumns[m], text))
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return row, errors.NewMalformedRow(line,
				fmt.Sprintf("non-finite %s", metricColumns[m]))
		}
		row.Values[m] = value
	}

	return row, nil
}

// WriteCSV writes rows in the input format, header first.
func WriteCSV(path string, rows []model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{colTimestamp, colStation, colRegion,
		metricColumns[0], metricColumns[1], metricColumns[2]}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i := range rows {
		row := &rows[i]
		record[0] = row.Timestamp
		record[1] = row.Station
		record[2] = row.Region
		for _, m := range model.Metrics {
			record[3+int(m)] = strconv.FormatFloat(row.Values[m], 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.Close()
}
