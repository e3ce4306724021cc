package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anemolab/anemo/internal/ingest"
	"github.com/anemolab/anemo/internal/model"
)

// generateCmd produces a synthetic input dataset.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic dataset",
	Long: `Generate a synthetic weather dataset: a smooth seasonal signal per
metric with gaussian noise, plus injected outliers at the requested rate.

The ground-truth ledger of injected anomalies is written alongside the
dataset so detection results can be validated against what was planted.

Example:
  anemod generate -o data/readings.csv --stations 12 --rows 60 --rate 0.02`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("output", "o", "data/readings.csv", "output CSV path")
	generateCmd.Flags().String("ledger", "", "anomaly ledger path (default: <output>.anomalies.csv)")
	generateCmd.Flags().Int("stations", 12, "number of stations")
	generateCmd.Flags().Int("rows", 1440, "rows per station (one per minute)")
	generateCmd.Flags().Float64("rate", 0.02, "injected anomaly rate (0-1)")
	generateCmd.Flags().String("start", "2025-07-01 00:00:00", "first timestamp")
	generateCmd.Flags().Int64("seed", 42, "random seed")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	ledger, _ := cmd.Flags().GetString("ledger")
	stations, _ := cmd.Flags().GetInt("stations")
	rows, _ := cmd.Flags().GetInt("rows")
	rate, _ := cmd.Flags().GetFloat64("rate")
	startText, _ := cmd.Flags().GetString("start")
	seed, _ := cmd.Flags().GetInt64("seed")

	if stations <= 0 || rows <= 0 {
		return fmt.Errorf("stations and rows must be positive")
	}
	if rate < 0 || rate > 1 {
		return fmt.Errorf("rate must be in [0, 1]")
	}

	start, err := time.ParseInLocation(model.TimestampLayout, startText, time.UTC)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}

	if ledger == "" {
		ledger = output + ".anomalies.csv"
	}

	data, injected := ingest.Generate(ingest.GeneratorConfig{
		Stations:       stations,
		RowsPerStation: rows,
		AnomalyRate:    rate,
		Start:          start,
		Seed:           seed,
	})

	if err := ingest.WriteCSV(output, data); err != nil {
		return err
	}
	if err := ingest.WriteAnomalyLedger(ledger, injected); err != nil {
		return err
	}

	fmt.Printf("Generated %d rows (%d stations x %d) with %d injected anomalies\n",
		len(data), stations, rows, len(injected))
	fmt.Printf("Dataset: %s\nLedger:  %s\n", output, ledger)
	return nil
}
