package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/cli"
	"github.com/WinnyKing57/WinClean-sub000/internal/config"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/scanner"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

var (
	cleanCategories []string
	cleanMaxSafety  string
	cleanDryRun     bool
	cleanYes        bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Apply the scan proposals",
	Long: `Clean scans like 'winclean scan' and then applies the proposals.
Reversible actions are backed up first; --dry-run simulates the whole
run without touching the disk.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringSliceVar(&cleanCategories, "category", nil, "limit the cleanup to these categories")
	cleanCmd.Flags().StringVar(&cleanMaxSafety, "max-safety", "safe", "skip actions above this safety level (safe, moderate, risky)")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "simulate without deleting anything")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClean(cmd *cobra.Command, _ []string) error {
	maxSafety, err := types.ParseSafetyLevel(cleanMaxSafety)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := scanner.DefaultRegistry(cfg)
	actions, failures := scanPipeline(cmd.Context(), registry, cleanCategories, maxSafety)
	printScanFailures(cmd.ErrOrStderr(), failures)

	summary := cleaner.Summarize(actions)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatActionSummary(summary, actions, 5))
	if len(actions) == 0 {
		return nil
	}

	if !cleanDryRun && !cleanYes {
		prompt := fmt.Sprintf("Apply %d actions (est. %s)?",
			summary.TotalActions, humanize.IBytes(uint64(summary.TotalBytes)))
		if !cli.Confirm(cmd.InOrStdin(), prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	executor := newExecutor(cfg)
	results, execErr := cleanActions(cmd.Context(), cmd.OutOrStdout(), executor, actions, cleanDryRun)

	if !cleanDryRun {
		recordCleanings(cmd.Context(), cfg, results)
		newBackupManager(cfg).Purge()
	}
	return execErr
}

// cleanActions executes the batch and renders the outcome.
func cleanActions(ctx context.Context, out io.Writer, executor *cleaner.Executor, actions []types.CleaningAction, dryRun bool) ([]types.CleaningResult, error) {
	results, err := executor.Execute(ctx, actions, dryRun)
	report := cleaner.SummarizeResults(results)
	fmt.Fprintln(out, cli.FormatExecutionReport(report, dryRun))
	return results, err
}

// recordCleanings persists the outcome; history trouble never fails a run.
func recordCleanings(ctx context.Context, cfg *config.Config, results []types.CleaningResult) {
	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordCleanings(ctx, results); err != nil {
		logger.Warn("cleanings not recorded", "error", err)
	}
}
