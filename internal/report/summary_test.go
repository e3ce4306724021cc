package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary(42.5, sampleResults())

	if summary.ElapsedMs != 42.5 {
		t.Errorf("elapsed = %v, want 42.5", summary.ElapsedMs)
	}
	if len(summary.Stations) != 2 {
		t.Fatalf("got %d stations, want 2", len(summary.Stations))
	}

	s := summary.Stations["STA-001"]
	if s.AnomalyPercentages["temperature"] != 1.25 {
		t.Errorf("temperature pct = %v, want 1.25", s.AnomalyPercentages["temperature"])
	}
	if s.AnomalyPercentages["humidity"] != 0 {
		t.Errorf("humidity pct = %v, want 0", s.AnomalyPercentages["humidity"])
	}
	if s.ConcurrentAnomalyPeriods != 2 {
		t.Errorf("concurrent periods = %d, want 2", s.ConcurrentAnomalyPeriods)
	}
	if s.Percentiles != nil {
		t.Error("percentiles present without being enabled")
	}
}

func TestWriteSummary_Document(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	if err := WriteSummary(path, BuildSummary(42.5, sampleResults())); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var doc struct {
		ElapsedMs float64 `json:"elapsed_ms"`
		Stations  map[string]struct {
			AnomalyPercentages       map[string]float64 `json:"anomaly_percentages"`
			ConcurrentAnomalyPeriods int64              `json:"concurrent_anomaly_periods"`
		} `json:"stations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.ElapsedMs != 42.5 {
		t.Errorf("elapsed_ms = %v", doc.ElapsedMs)
	}
	if _, ok := doc.Stations["STA-001"]; !ok {
		t.Error("STA-001 missing from document")
	}
	if doc.Stations["STA-001"].AnomalyPercentages["pressure"] != 0.5 {
		t.Errorf("pressure pct = %v", doc.Stations["STA-001"].AnomalyPercentages["pressure"])
	}

	// Station keys serialize sorted, so the raw bytes are reproducible.
	if !bytes.Contains(data, []byte(`"STA-001"`)) {
		t.Error("document missing station key")
	}
	if idx1, idx2 := bytes.Index(data, []byte(`"STA-001"`)), bytes.Index(data, []byte(`"STA-002"`)); idx1 > idx2 {
		t.Error("station keys not in sorted order")
	}
}

func TestEncodeMovingAverages_JSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeMovingAverages(&buf, sampleRecords()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var rec struct {
		Timestamp   string  `json:"timestamp"`
		Station     string  `json:"station_id"`
		Region      string  `json:"region"`
		Temperature float64 `json:"temperature"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal line 0: %v", err)
	}
	if rec.Station != "STA-001" || rec.Region != "south" || rec.Temperature != 22.5 {
		t.Errorf("line 0 = %+v", rec)
	}

	// The internal millisecond timestamp stays internal.
	if strings.Contains(lines[0], "TimestampMs") || strings.Contains(lines[0], "timestamp_ms") {
		t.Error("jsonl leaked the internal millisecond field")
	}
}

func TestParseCompressionType(t *testing.T) {
	cases := map[string]CompressionType{
		"snappy":  CompressionSnappy,
		"zstd":    CompressionZstd,
		"lz4":     CompressionLZ4,
		"gzip":    CompressionGzip,
		"none":    CompressionNone,
		"":        CompressionNone,
		"unknown": CompressionZstd,
	}
	for in, want := range cases {
		if got := ParseCompressionType(in); got != want {
			t.Errorf("ParseCompressionType(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMovingAverageWriter_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "averages.parquet")

	w, err := NewMovingAverageWriter(path, DefaultParquetOptions())
	if err != nil {
		t.Fatalf("NewMovingAverageWriter: %v", err)
	}

	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.RowCount() != 2 {
		t.Errorf("row count = %d, want 2", w.RowCount())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Writes after close must fail, a second close is a no-op.
	if err := w.Write(sampleRecords()); err == nil {
		t.Error("write after close should fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("parquet file missing or empty: %v", err)
	}
}
