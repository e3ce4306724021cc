package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anemolab/anemo/internal/loader"
	"github.com/anemolab/anemo/internal/logging"
	"github.com/anemolab/anemo/internal/pipeline"
)

// runCmd executes one batch run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the batch pipeline",
	Long: `Run the anomaly batch over the configured dataset.

Reads the input CSV, analyzes every station partition in parallel, computes
per-region moving averages over the clean rows, writes both outputs, and
records the run in the run store.

Example:
  anemod run -c config.yaml
  anemod run -c config.yaml -w 16
  anemod run -i data/readings.csv`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file")
	runCmd.Flags().IntP("workers", "w", 0, "worker count (overrides config)")
	runCmd.Flags().StringP("input", "i", "", "input CSV path (overrides config)")
	runCmd.Flags().Bool("percentiles", false, "include per-station percentiles in the summary")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// CLI overrides.
	if workers, _ := cmd.Flags().GetInt("workers"); workers != 0 {
		cfg.Pipeline.Workers = workers
	}
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		cfg.Input.Path = input
	}
	if on, _ := cmd.Flags().GetBool("percentiles"); on {
		cfg.Percentiles.Enabled = true
	}

	// Worker count is validated before any processing begins.
	if err := cfg.Validate(); err != nil {
		return err
	}

	initLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d rows across %d stations in %.2f ms (workers=%d)\n",
		res.Rows, res.Stations, res.ElapsedMs, cfg.Pipeline.Workers)
	fmt.Printf("Summary:         %s\n", cfg.Output.SummaryPath)
	fmt.Printf("Moving averages: %s (%d records)\n",
		cfg.Output.MovingAveragesPath, res.CleanRows)
	return nil
}

// loadConfig loads the config file when given, otherwise defaults.
func loadConfig(cmd *cobra.Command) (*loader.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return loader.DefaultConfig(), nil
	}

	cfg, err := loader.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *loader.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logging.Init(level, cfg.Logging.JSON)
}
