package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/anemolab/anemo/internal/errors"
	"github.com/anemolab/anemo/internal/model"
)

// ParquetOptions configures the Parquet writer.
type ParquetOptions struct {
	// Compression algorithm.
	Compression CompressionType
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultParquetOptions returns default Parquet options.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: CompressionZstd}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// MovingAverageRow is the Parquet representation of one Output B record.
type MovingAverageRow struct {
	Timestamp   string  `parquet:"timestamp,zstd"`
	TimestampMs int64   `parquet:"timestamp_ms"`
	Station     string  `parquet:"station_id,zstd"`
	Region      string  `parquet:"region,zstd"`
	Temperature float64 `parquet:"temperature"`
	Humidity    float64 `parquet:"humidity"`
	Pressure    float64 `parquet:"pressure"`
}

// toRow converts a MovingAverageRecord to its Parquet form.
func toRow(r *model.MovingAverageRecord) MovingAverageRow {
	return MovingAverageRow{
		Timestamp:   r.Timestamp,
		TimestampMs: r.TimestampMs,
		Station:     r.Station,
		Region:      r.Region,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Pressure:    r.Pressure,
	}
}

// MovingAverageWriter writes Output B records to a Parquet file.
type MovingAverageWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *parquet.GenericWriter[MovingAverageRow]
	rowCount int64
	closed   bool
}

// NewMovingAverageWriter creates a Parquet writer for Output B.
func NewMovingAverageWriter(path string, opts ParquetOptions) (*MovingAverageWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	writer := parquet.NewGenericWriter[MovingAverageRow](f,
		parquet.Compression(getCompression(opts.Compression)))

	return &MovingAverageWriter{
		path:   path,
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the Parquet file.
func (w *MovingAverageWriter) Write(records []model.MovingAverageRecord) error {
	if len(records) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.ErrWriterClosed
	}

	rows := make([]MovingAverageRow, len(records))
	for i := range records {
		rows[i] = toRow(&records[i])
	}

	n, err := w.writer.Write(rows)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Close closes the writer.
func (w *MovingAverageWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close writer: %w", err)
	}

	return w.file.Close()
}

// RowCount returns the number of rows written.
func (w *MovingAverageWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the file path.
func (w *MovingAverageWriter) Path() string {
	return w.path
}

// WriteMovingAveragesParquet writes Output B as a single Parquet file.
func WriteMovingAveragesParquet(path string, records []model.MovingAverageRecord, opts ParquetOptions) error {
	w, err := NewMovingAverageWriter(path, opts)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	log.Info("moving averages written", "path", path, "records", len(records), "format", "parquet")
	return nil
}
