package cleaner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/dedup"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

const defaultCommandTimeout = 300 * time.Second

// ErrUnsupportedAction marks an action kind the executor cannot apply in
// real mode. Dry-run never reports it.
var ErrUnsupportedAction = errors.New("unsupported action kind")

var getLockedPaths = utils.GetLockedPaths

// Options configures an Executor.
type Options struct {
	// RequireBackup makes a failed backup block the reversible action that
	// requested it. When false a failed backup is logged and the action
	// proceeds.
	RequireBackup bool
	// CommandTimeout bounds run_declared_command execution. Zero selects
	// the default of five minutes.
	CommandTimeout time.Duration
	// Backups receives copies of reversible targets before they are
	// mutated. A nil manager disables backups.
	Backups *BackupManager
}

// Executor applies cleaning actions one at a time, in input order. Each
// action fails or succeeds on its own; one failure never stops the batch.
type Executor struct {
	fs            afero.Fs
	backups       *BackupManager
	selector      *dedup.Selector
	requireBackup bool
	cmdTimeout    time.Duration
}

// NewExecutor creates an executor on the host filesystem.
func NewExecutor(opts Options) *Executor {
	return NewExecutorWithFS(afero.NewOsFs(), opts)
}

// NewExecutorWithFS creates an executor on the given filesystem.
func NewExecutorWithFS(fsys afero.Fs, opts Options) *Executor {
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Executor{
		fs:            fsys,
		backups:       opts.Backups,
		selector:      dedup.NewSelectorWithFS(fsys),
		requireBackup: opts.RequireBackup,
		cmdTimeout:    timeout,
	}
}

// Execute applies every action and returns one result per action, in input
// order. With dryRun set, no action of any kind mutates the filesystem:
// every action reports success with its estimate as the freed size, even
// kinds the executor does not recognize. The context is checked between
// actions; on cancellation the results so far are returned together with
// the context's error.
func (e *Executor) Execute(ctx context.Context, actions []types.CleaningAction, dryRun bool) ([]types.CleaningResult, error) {
	results := make([]types.CleaningResult, 0, len(actions))

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, e.executeOne(ctx, action, dryRun))
	}
	return results, nil
}

func (e *Executor) executeOne(ctx context.Context, action types.CleaningAction, dryRun bool) types.CleaningResult {
	start := time.Now()

	if dryRun {
		return types.CleaningResult{
			Action:     action,
			Success:    true,
			FreedBytes: action.EstimatedBytes,
			Duration:   time.Since(start),
		}
	}

	freed, err := e.apply(ctx, &action)
	result := types.CleaningResult{
		Action:     action,
		Success:    err == nil,
		FreedBytes: freed,
		Duration:   time.Since(start),
	}
	if err != nil {
		result.ErrorMessage = err.Error()
		logger.Warn("cleaning action failed",
			"kind", action.Kind,
			"target", action.Target,
			"error", err)
	} else {
		logger.Info("cleaning action applied",
			"kind", action.Kind,
			"target", action.Target,
			"freed", freed)
	}
	return result
}

func (e *Executor) apply(ctx context.Context, action *types.CleaningAction) (int64, error) {
	switch action.Kind {
	case types.ActionDeleteFile:
		return e.deleteFile(action)
	case types.ActionDeleteDirectory:
		return e.deleteDirectory(action)
	case types.ActionClearCache:
		return e.clearCache(action)
	case types.ActionVacuumDatabase:
		return e.vacuumDatabase(action)
	case types.ActionRunDeclaredCommand:
		return e.runDeclaredCommand(ctx, action)
	case types.ActionRemoveDuplicateCopy:
		return e.removeDuplicateCopy(action)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Kind)
	}
}

func (e *Executor) deleteFile(action *types.CleaningAction) (int64, error) {
	info, err := e.fs.Stat(action.Target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("file not found: %s", action.Target)
		}
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("target is a directory: %s", action.Target)
	}

	if action.Reversible {
		name, err := e.createBackup(action.Target)
		if err != nil {
			return 0, err
		}
		action.BackupName = name
	}

	size := info.Size()
	if err := e.fs.Remove(action.Target); err != nil {
		return 0, err
	}
	return size, nil
}

func (e *Executor) deleteDirectory(action *types.CleaningAction) (int64, error) {
	info, err := e.fs.Stat(action.Target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("directory not found: %s", action.Target)
		}
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("target is not a directory: %s", action.Target)
	}

	size, _ := utils.DirSize(e.fs, action.Target)

	if action.Reversible {
		name, err := e.createBackup(action.Target)
		if err != nil {
			return 0, err
		}
		action.BackupName = name
	}

	if err := e.fs.RemoveAll(action.Target); err != nil {
		return 0, err
	}
	return size, nil
}

// clearCache empties the target directory but keeps the directory itself.
// Entries a running process holds open stay in place, removal is
// best-effort per entry, and the measured shrinkage is reported as freed.
func (e *Executor) clearCache(action *types.CleaningAction) (int64, error) {
	info, err := e.fs.Stat(action.Target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("cache directory not found: %s", action.Target)
		}
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("target is not a directory: %s", action.Target)
	}

	before, _ := utils.DirSize(e.fs, action.Target)

	locked, err := getLockedPaths(action.Target)
	if err != nil {
		logger.Debug("lock probe failed, clearing without it", "dir", action.Target, "error", err)
		locked = nil
	}

	removed, skipped, errs := utils.ClearDirContents(e.fs, action.Target, locked)
	for _, entryErr := range errs {
		logger.Debug("cache entry not removed", "dir", action.Target, "error", entryErr)
	}
	logger.Info("cache cleared",
		"dir", action.Target,
		"entries", removed,
		"in_use", skipped,
		"failed", len(errs))

	after, _ := utils.DirSize(e.fs, action.Target)
	return before - after, nil
}

func (e *Executor) runDeclaredCommand(ctx context.Context, action *types.CleaningAction) (int64, error) {
	if action.Target == "" {
		return 0, errors.New("no command declared")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, e.cmdTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", action.Target)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("command timed out after %s", e.cmdTimeout)
		}
		if diag := strings.TrimSpace(stderr.String()); diag != "" {
			return 0, fmt.Errorf("command failed: %v: %s", err, diag)
		}
		return 0, fmt.Errorf("command failed: %v", err)
	}

	// Freed space cannot be measured for an external command.
	return action.EstimatedBytes, nil
}

// removeDuplicateCopy deletes every listed path except the first, which is
// the copy to keep. The whole list is re-hashed first; any member missing
// or diverged aborts the deletion.
func (e *Executor) removeDuplicateCopy(action *types.CleaningAction) (int64, error) {
	paths := action.TargetList()
	if len(paths) < 2 {
		return 0, errors.New("duplicate action needs a kept copy and at least one candidate")
	}

	if !e.selector.Verify(paths) {
		return 0, fmt.Errorf("duplicate verification failed, keeping all copies of %s", paths[0])
	}

	var freed int64
	var backups []string
	for _, p := range paths[1:] {
		info, err := e.fs.Stat(p)
		if err != nil {
			return freed, err
		}

		if action.Reversible {
			name, err := e.createBackup(p)
			if err != nil {
				return freed, err
			}
			if name != "" {
				backups = append(backups, name)
			}
		}

		if err := e.fs.Remove(p); err != nil {
			return freed, err
		}
		freed += info.Size()
	}
	action.BackupName = types.JoinTargets(backups)
	return freed, nil
}

// createBackup copies path into the backup area and returns the backup
// name. Without RequireBackup a failed copy is logged and an empty name is
// returned so the action can proceed.
func (e *Executor) createBackup(path string) (string, error) {
	if e.backups == nil {
		if e.requireBackup {
			return "", errors.New("backup required but no backup area configured")
		}
		return "", nil
	}

	name, err := e.backups.Create(path)
	if err != nil {
		if e.requireBackup {
			return "", fmt.Errorf("backup failed: %w", err)
		}
		logger.Warn("backup failed, continuing without one", "target", path, "error", err)
		return "", nil
	}
	return name, nil
}
