// Package main is the entry point for the anemod CLI.
//
// anemod runs the partition-parallel anomaly batch over a weather dataset.
//
// Usage:
//
//	anemod run -c config.yaml              # Run the batch pipeline
//	anemod run -c config.yaml -w 8         # Override the worker count
//	anemod generate -o data/readings.csv   # Generate a synthetic dataset
//	anemod report                          # List runs, verify determinism
//	anemod version                         # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "anemod",
	Short: "Partition-parallel weather anomaly batch engine",
	Long: `anemod computes per-station anomaly metrics and per-region moving
averages over a weather time-series dataset.

Stations are analyzed in parallel by a fixed worker pool; the moving-average
pass runs single-threaded after all workers finish. The outputs are
byte-for-byte identical regardless of the worker count, and every run is
recorded so that property can be verified after the fact.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("anemod %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
