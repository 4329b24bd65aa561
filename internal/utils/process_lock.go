package utils

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const lsofTimeout = 10 * time.Second

// GetLockedPaths returns the top-level entries under basePath that a
// running process currently holds open, keyed by absolute path. Without
// lsof on PATH every path counts as unlocked.
func GetLockedPaths(basePath string) (map[string]bool, error) {
	locked := make(map[string]bool)
	if basePath == "" || !CommandExists("lsof") {
		return locked, nil
	}

	base := filepath.Clean(ExpandPath(basePath))
	ctx, cancel := context.WithTimeout(context.Background(), lsofTimeout)
	defer cancel()

	cmd := execCommandContext(ctx, "lsof", "-nP", "-F", "n")
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		// lsof exits 1 when it found nothing to report.
		exitErr := &exec.ExitError{}
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, err
		}
	}
	if len(output) == 0 {
		return locked, nil
	}

	return parseLockedPaths(output, base), nil
}

// parseLockedPaths reduces lsof -F n output to the top-level entries of
// basePath that hold at least one open file. basePath itself is never
// reported.
func parseLockedPaths(output []byte, basePath string) map[string]bool {
	locked := make(map[string]bool)

	for _, line := range strings.Split(string(output), "\n") {
		if !strings.HasPrefix(line, "n") {
			continue
		}
		path := strings.TrimPrefix(line, "n")

		rel, err := filepath.Rel(basePath, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}

		top := strings.Split(rel, string(filepath.Separator))[0]
		if top == "" || top == "." || top == ".." {
			continue
		}
		locked[filepath.Join(basePath, top)] = true
	}
	return locked
}
