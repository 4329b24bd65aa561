package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/cli"
	"github.com/WinnyKing57/WinClean-sub000/internal/config"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/scanner"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

var (
	scanCategories []string
	scanMaxSafety  string
	scanTop        int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for reclaimable disk space",
	Long: `Scan runs every available profile and reports what could be
cleaned, without touching anything. Use 'winclean clean' to apply the
proposals.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanCategories, "category", nil, "limit the scan to these categories")
	scanCmd.Flags().StringVar(&scanMaxSafety, "max-safety", "risky", "hide proposals above this safety level (safe, moderate, risky)")
	scanCmd.Flags().IntVar(&scanTop, "top", 5, "number of top proposals to list")
}

func runScan(cmd *cobra.Command, _ []string) error {
	maxSafety, err := types.ParseSafetyLevel(scanMaxSafety)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := scanner.DefaultRegistry(cfg)
	actions, failures := scanPipeline(cmd.Context(), registry, scanCategories, maxSafety)

	summary := cleaner.Summarize(actions)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatActionSummary(summary, actions, scanTop))
	printScanFailures(cmd.ErrOrStderr(), failures)

	recordScan(cmd.Context(), cfg, scanRoot(scanCategories), summary)
	return nil
}

// scanPipeline fans out over the registry and applies the safety cutoff.
func scanPipeline(ctx context.Context, registry *scanner.Registry, categories []string, maxSafety types.SafetyLevel) ([]types.CleaningAction, map[string]error) {
	service := scanner.NewService(registry)
	actions, failures := service.ScanCategories(ctx, categories)
	return filterBySafety(actions, maxSafety), failures
}

// recordScan persists the summary; history trouble never fails a scan.
func recordScan(ctx context.Context, cfg *config.Config, root string, summary types.CleaningSummary) {
	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordScan(ctx, root, summary); err != nil {
		logger.Warn("scan not recorded", "error", err)
	}
}

func scanRoot(categories []string) string {
	if len(categories) == 0 {
		return "all"
	}
	return strings.Join(categories, ",")
}
