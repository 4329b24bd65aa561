// Package cmd wires the winclean subcommands.
package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/config"
	"github.com/WinnyKing57/WinClean-sub000/internal/history"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

var (
	// Global flags
	debug bool

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
	rootCmd.Version = fmt.Sprintf("%s (%s) built %s", appVersion, appCommit, appDate)
}

var rootCmd = &cobra.Command{
	Use:   "winclean",
	Short: "Reclaim disk space with duplicate detection and safe cleanup",
	Long: `WinClean finds reclaimable disk space on Linux systems.

It scans caches, rotated logs, temp files, old downloads and app data
through configurable profiles, detects duplicate files by content, and
applies cleanup actions with dry-run, backup and history support.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := logger.Init(debug); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logger.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug details to the log file")
	rootCmd.Version = fmt.Sprintf("%s (%s) built %s", appVersion, appCommit, appDate)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newBackupManager builds the backup area from the configured policy.
func newBackupManager(cfg *config.Config) *cleaner.BackupManager {
	settings := cfg.Settings
	maxAge := time.Duration(settings.MaxBackupAgeDays) * 24 * time.Hour
	maxSize := settings.MaxBackupSizeMB * 1024 * 1024
	return cleaner.NewBackupManager(utils.ExpandPath(settings.BackupDir), maxAge, maxSize)
}

func newExecutor(cfg *config.Config) *cleaner.Executor {
	return cleaner.NewExecutor(cleaner.Options{
		RequireBackup:  cfg.Settings.RequireBackup,
		CommandTimeout: time.Duration(cfg.Settings.CommandTimeoutSeconds) * time.Second,
		Backups:        newBackupManager(cfg),
	})
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	return history.Open(utils.ExpandPath(cfg.Settings.HistoryPath))
}

// filterBySafety drops every action rated riskier than max.
func filterBySafety(actions []types.CleaningAction, max types.SafetyLevel) []types.CleaningAction {
	kept := make([]types.CleaningAction, 0, len(actions))
	for _, action := range actions {
		if action.Safety.MoreRiskyThan(max) {
			continue
		}
		kept = append(kept, action)
	}
	return kept
}

// printScanFailures reports per-profile scan errors without failing the
// command; a partial scan is still a scan.
func printScanFailures(w io.Writer, failures map[string]error) {
	if len(failures) == 0 {
		return
	}

	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "Warning: profile %s failed: %v\n", id, failures[id])
	}
}
