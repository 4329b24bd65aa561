package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cli"
)

var (
	historyLimit int
	trendsDays   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past scans and cleanings",
	RunE:  runHistory,
}

var historyTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show per-day cleaning totals",
	RunE:  runHistoryTrends,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the recorded history",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of records per section")
	historyTrendsCmd.Flags().IntVar(&trendsDays, "days", 30, "number of days to aggregate")
	historyCmd.AddCommand(historyTrendsCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	scans, err := store.RecentScans(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("load scans: %w", err)
	}
	cleanings, err := store.RecentCleanings(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("load cleanings: %w", err)
	}
	totalFreed, err := store.TotalFreed(ctx)
	if err != nil {
		return fmt.Errorf("load totals: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatHistory(scans, cleanings, totalFreed))
	return nil
}

func runHistoryTrends(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Trends(cmd.Context(), trendsDays)
	if err != nil {
		return fmt.Errorf("load trends: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTrends(stats))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
