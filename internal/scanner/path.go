package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

// PathScanner proposes actions for profiles that describe their targets
// as glob patterns: cache directories, rotated logs, temp files, old
// downloads. The profile's kind hint decides what a match turns into.
type PathScanner struct {
	fs      afero.Fs
	profile types.Profile
	policy  *Policy
	exclude []string

	now func() time.Time
}

func NewPathScanner(profile types.Profile, policy *Policy) *PathScanner {
	return NewPathScannerWithFS(afero.NewOsFs(), profile, policy)
}

func NewPathScannerWithFS(fsys afero.Fs, profile types.Profile, policy *Policy) *PathScanner {
	return &PathScanner{
		fs:      fsys,
		profile: profile,
		policy:  policy,
		exclude: normalizePrefixes(profile.Exclude),
		now:     time.Now,
	}
}

func (s *PathScanner) Profile() types.Profile {
	return s.profile
}

// IsAvailable reports whether any pattern currently matches something.
func (s *PathScanner) IsAvailable() bool {
	for _, pattern := range s.profile.Paths {
		matches, err := utils.GlobPaths(s.fs, pattern)
		if err != nil {
			continue
		}
		if len(matches) > 0 {
			return true
		}
	}
	return false
}

func (s *PathScanner) Scan(ctx context.Context) ([]types.CleaningAction, error) {
	actions := make([]types.CleaningAction, 0)
	seen := make(map[string]struct{})

	var cutoff time.Time
	if s.profile.MaxAgeDays > 0 {
		cutoff = s.now().AddDate(0, 0, -s.profile.MaxAgeDays)
	}

	for _, pattern := range s.profile.Paths {
		matches, err := utils.GlobPaths(s.fs, pattern)
		if err != nil {
			logger.Debug("glob failed", "profile", s.profile.ID, "pattern", pattern, "error", err)
			continue
		}
		for _, match := range matches {
			if err := ctx.Err(); err != nil {
				return actions, err
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}

			action, ok := s.inspect(match, cutoff)
			if ok {
				actions = append(actions, action)
			}
		}
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Target < actions[j].Target
	})
	return actions, nil
}

// inspect applies the profile's filters to one matched path and builds
// the action for it.
func (s *PathScanner) inspect(path string, cutoff time.Time) (types.CleaningAction, bool) {
	if !s.policy.Allows(path) {
		logger.Debug("skipping protected path", "profile", s.profile.ID, "path", path)
		return types.CleaningAction{}, false
	}
	if matchesPrefix(path, s.exclude) {
		return types.CleaningAction{}, false
	}

	info, err := s.fs.Stat(path)
	if err != nil {
		logger.Debug("stat failed", "profile", s.profile.ID, "path", path, "error", err)
		return types.CleaningAction{}, false
	}

	if len(s.profile.Extensions) > 0 {
		if info.IsDir() || !matchesExtension(path, s.profile.Extensions) {
			return types.CleaningAction{}, false
		}
	}
	if !cutoff.IsZero() && info.ModTime().After(cutoff) {
		return types.CleaningAction{}, false
	}

	size, err := utils.PathSize(s.fs, path)
	if err != nil {
		logger.Debug("size failed", "profile", s.profile.ID, "path", path, "error", err)
		return types.CleaningAction{}, false
	}
	if size < s.profile.MinSizeBytes() {
		return types.CleaningAction{}, false
	}

	kind := s.kindFor(info)
	return types.CleaningAction{
		Kind:           kind,
		Target:         path,
		EstimatedBytes: size,
		Description:    fmt.Sprintf("%s: %s", s.profile.Name, filepath.Base(path)),
		Safety:         s.policy.Confine(s.profile.Safety, path),
		Category:       s.profile.Category,
		Reversible:     s.reversible(kind, path),
	}, true
}

// kindFor maps a matched entry to an action kind. The profile's hint
// applies where it fits the entry; a clear_cache hint only fits
// directories, and files under such a profile fall back to deletion.
func (s *PathScanner) kindFor(info os.FileInfo) types.ActionKind {
	if info.IsDir() {
		if s.profile.Kind == types.ActionClearCache {
			return types.ActionClearCache
		}
		return types.ActionDeleteDirectory
	}
	return types.ActionDeleteFile
}

func (s *PathScanner) reversible(kind types.ActionKind, path string) bool {
	if kind != types.ActionDeleteFile && kind != types.ActionDeleteDirectory {
		return false
	}
	return s.profile.Reversible || s.policy.RequiresBackup(path)
}

func matchesExtension(path string, extensions []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
