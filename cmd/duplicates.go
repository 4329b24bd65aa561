package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WinnyKing57/WinClean-sub000/internal/cleaner"
	"github.com/WinnyKing57/WinClean-sub000/internal/cli"
	"github.com/WinnyKing57/WinClean-sub000/internal/dedup"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/scanner"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

var (
	dupMinSize  int64
	dupStrategy string
	dupWorkers  int
	dupLimit    int
	dupDelete   bool
	dupDryRun   bool
	dupYes      bool
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <root> [root ...]",
	Short: "Find files with identical content",
	Long: `Duplicates groups the files below the given roots by content
digest and reports the wasted space. With --delete one copy per group
is kept and the rest are removed through the cleaning engine.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDuplicates,
}

func init() {
	duplicatesCmd.Flags().Int64Var(&dupMinSize, "min-size", 1, "ignore files smaller than this many bytes")
	duplicatesCmd.Flags().StringVar(&dupStrategy, "strategy", "", "copy to keep: first, shortest_path, newest or oldest")
	duplicatesCmd.Flags().IntVar(&dupWorkers, "workers", 0, "hash workers (0 selects a CPU-based default)")
	duplicatesCmd.Flags().IntVar(&dupLimit, "limit", 10, "number of groups to list")
	duplicatesCmd.Flags().BoolVar(&dupDelete, "delete", false, "remove the redundant copies")
	duplicatesCmd.Flags().BoolVar(&dupDryRun, "dry-run", false, "simulate the removal without deleting anything")
	duplicatesCmd.Flags().BoolVarP(&dupYes, "yes", "y", false, "skip the confirmation prompt")
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	minSize := dupMinSize
	if !cmd.Flags().Changed("min-size") {
		minSize = cfg.Settings.MinDuplicateSizeBytes
	}
	strategyName := dupStrategy
	if strategyName == "" {
		strategyName = cfg.Settings.RetentionStrategy
	}
	workers := dupWorkers
	if workers == 0 {
		workers = cfg.Settings.Workers
	}

	roots := make([]string, 0, len(args))
	for _, root := range args {
		roots = append(roots, utils.ExpandPath(root))
	}

	// Roots may overlap, so groups merge by digest and the first root
	// to report one wins.
	detector := dedup.NewDetector(workers)
	merged := make(map[string]*types.DuplicateGroup)
	for _, root := range roots {
		groups, err := detector.FindDuplicates(cmd.Context(), root, minSize)
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
		for digest, group := range groups {
			if _, ok := merged[digest]; !ok {
				merged[digest] = group
			}
		}
	}

	report := dedup.Report(merged)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatDuplicateReport(report, dupLimit))

	policy := scanner.NewPolicy(cfg.Settings.SafeDirectories, cfg.Settings.ProtectedDirectories)
	actions := duplicateActions(report.Groups, policy, dedup.ParseStrategy(strategyName))
	recordScan(cmd.Context(), cfg, strings.Join(roots, ","), cleaner.Summarize(actions))

	if !dupDelete && !dupDryRun {
		return nil
	}
	if len(actions) == 0 {
		return nil
	}

	if !dupDryRun && !dupYes {
		var wasted int64
		for _, action := range actions {
			wasted += action.EstimatedBytes
		}
		prompt := fmt.Sprintf("Remove the redundant copies in %d groups (est. %s)?",
			len(actions), humanize.IBytes(uint64(wasted)))
		if !cli.Confirm(cmd.InOrStdin(), prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	executor := newExecutor(cfg)
	results, execErr := cleanActions(cmd.Context(), cmd.OutOrStdout(), executor, actions, dupDryRun)

	if !dupDryRun {
		recordCleanings(cmd.Context(), cfg, results)
		newBackupManager(cfg).Purge()
	}
	return execErr
}

// duplicateActions turns detected groups into removal proposals with the
// kept copy leading each target list. Groups with a protected member are
// left whole.
func duplicateActions(groups []*types.DuplicateGroup, policy *scanner.Policy, strategy dedup.Strategy) []types.CleaningAction {
	selector := dedup.NewSelector()

	actions := make([]types.CleaningAction, 0, len(groups))
	for _, group := range groups {
		if anyProtected(policy, group.Paths) {
			logger.Debug("duplicate group skipped", "digest", group.Digest, "reason", "protected member")
			continue
		}

		keep, remove := selector.Partition(group, strategy)
		if len(remove) == 0 {
			continue
		}

		targets := append([]string{keep}, remove...)
		actions = append(actions, types.CleaningAction{
			Kind:           types.ActionRemoveDuplicateCopy,
			Target:         types.JoinTargets(targets),
			EstimatedBytes: group.WastedBytes,
			Description:    fmt.Sprintf("Duplicate Files: %d copies of %s", len(group.Paths), filepath.Base(keep)),
			Safety:         policy.ConfineAll(types.SafetyLevelModerate, remove),
			Category:       "duplicates",
			Reversible:     anyRequiresBackup(policy, remove),
		})
	}
	return actions
}

func anyProtected(policy *scanner.Policy, paths []string) bool {
	for _, p := range paths {
		if !policy.Allows(p) {
			return true
		}
	}
	return false
}

func anyRequiresBackup(policy *scanner.Policy, paths []string) bool {
	for _, p := range paths {
		if policy.RequiresBackup(p) {
			return true
		}
	}
	return false
}
