package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	appconfig "github.com/anemolab/anemo/config"
	"github.com/anemolab/anemo/internal/runstore"
)

// reportCmd inspects run history.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List recorded runs and verify determinism",
	Long: `Inspect the run store.

Without flags, lists the most recent runs and verifies that every dataset's
runs produced identical output fingerprints. With -i, opens an interactive
shell over the store.

Example:
  anemod report
  anemod report --db anemo.db -n 50
  anemod report -i`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("db", appconfig.DefaultRunStorePath, "run store database path")
	reportCmd.Flags().IntP("limit", "n", appconfig.DefaultReportLimit, "number of runs to list")
	reportCmd.Flags().BoolP("interactive", "i", false, "open an interactive shell")
}

func runReport(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("limit")
	interactive, _ := cmd.Flags().GetBool("interactive")

	store, err := runstore.New(runstore.Config{Path: dbPath})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("interactive mode requires a terminal")
		}
		shell := &reportShell{store: store, ctx: ctx}
		shell.run()
		return nil
	}

	if err := printRuns(ctx, store, limit); err != nil {
		return err
	}
	fmt.Println()
	return printVerification(ctx, store)
}

func printRuns(ctx context.Context, store *runstore.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %7s  %10s  %8s  %16s\n",
		"RUN", "STARTED", "WORKERS", "ELAPSED", "ROWS", "DATASET")
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %7d  %8.2fms  %8d  %16s\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Workers,
			r.ElapsedMs,
			r.Rows,
			r.Dataset)
	}
	return nil
}

func printVerification(ctx context.Context, store *runstore.Store) error {
	reports, err := store.VerifyAll(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return nil
	}

	fmt.Println("Determinism check (all runs over a dataset must agree):")
	for _, rep := range reports {
		status := "OK"
		if !rep.Consistent() {
			status = "MISMATCH"
		}
		fmt.Printf("  %-16s  runs=%-3d workers=%v  %s\n",
			rep.Dataset, rep.Runs, rep.WorkerCounts, status)
	}
	return nil
}

// =============================================================================
// Interactive Shell
// =============================================================================

// reportShell is a small go-prompt REPL over the run store.
type reportShell struct {
	store *runstore.Store
	ctx   context.Context
}

func (s *reportShell) run() {
	fmt.Println("anemo report shell. Type 'help' for commands, 'exit' to quit.")
	p := prompt.New(
		s.execute,
		s.complete,
		prompt.OptionPrefix("anemo> "),
		prompt.OptionTitle("anemod report"),
	)
	p.Run()
}

var shellSuggestions = []prompt.Suggest{
	{Text: "runs", Description: "List recent runs (runs [limit])"},
	{Text: "verify", Description: "Verify output determinism per dataset"},
	{Text: "show", Description: "Show one run by ID (show <run-id>)"},
	{Text: "help", Description: "List commands"},
	{Text: "exit", Description: "Leave the shell"},
}

func (s *reportShell) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(shellSuggestions, d.GetWordBeforeCursor(), true)
}

func (s *reportShell) execute(input string) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "runs":
		limit := appconfig.DefaultReportLimit
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				limit = n
			}
		}
		if err := printRuns(s.ctx, s.store, limit); err != nil {
			fmt.Println("error:", err)
		}

	case "verify":
		if err := printVerification(s.ctx, s.store); err != nil {
			fmt.Println("error:", err)
		}

	case "show":
		if len(fields) < 2 {
			fmt.Println("usage: show <run-id>")
			return
		}
		run, err := s.store.GetRun(s.ctx, fields[1])
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("run %s\n", run.ID)
		fmt.Printf("  started:       %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  dataset:       %s\n", run.Dataset)
		fmt.Printf("  workers:       %d\n", run.Workers)
		fmt.Printf("  elapsed:       %.2f ms\n", run.ElapsedMs)
		fmt.Printf("  rows:          %d (%d stations, %d clean)\n", run.Rows, run.Stations, run.CleanRows)
		fmt.Printf("  summary hash:  %s\n", run.SummaryHash)
		fmt.Printf("  averages hash: %s\n", run.AveragesHash)

	case "help":
		for _, sg := range shellSuggestions {
			fmt.Printf("  %-8s %s\n", sg.Text, sg.Description)
		}

	case "exit", "quit":
		os.Exit(0)

	default:
		fmt.Printf("unknown command %q (try 'help')\n", fields[0])
	}
}
