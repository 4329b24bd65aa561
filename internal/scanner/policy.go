package scanner

import (
	"strings"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

// Policy decides, per target path, whether a cleaning action may touch
// it at all, how risky it may be rated, and whether it needs a backup.
// Protected directories are off limits entirely. Safe directories mark
// areas where deletion is considered routine.
type Policy struct {
	safe      []string
	protected []string
}

func NewPolicy(safeDirs, protectedDirs []string) *Policy {
	return &Policy{
		safe:      normalizePrefixes(safeDirs),
		protected: normalizePrefixes(protectedDirs),
	}
}

// Allows reports whether path is outside every protected directory.
// A nil policy allows everything.
func (p *Policy) Allows(path string) bool {
	if p == nil {
		return true
	}
	return !matchesPrefix(path, p.protected)
}

// InSafeArea reports whether path lies under a declared safe directory.
func (p *Policy) InSafeArea(path string) bool {
	if p == nil {
		return false
	}
	return matchesPrefix(path, p.safe)
}

// Confine bounds level for the given target. Paths inside a safe area
// never rate above safe; everywhere else the level passes through.
func (p *Policy) Confine(level types.SafetyLevel, path string) types.SafetyLevel {
	if p.InSafeArea(path) {
		return types.ClampSafety(level, types.SafetyLevelSafe)
	}
	return level
}

// ConfineAll bounds level like Confine, relaxing only when every given
// path sits inside a safe area.
func (p *Policy) ConfineAll(level types.SafetyLevel, paths []string) types.SafetyLevel {
	if p == nil || len(paths) == 0 {
		return level
	}
	for _, path := range paths {
		if !p.InSafeArea(path) {
			return level
		}
	}
	return types.ClampSafety(level, types.SafetyLevelSafe)
}

// RequiresBackup reports whether deletions of path should be backed up
// regardless of the profile's own setting. Everything outside the safe
// areas qualifies.
func (p *Policy) RequiresBackup(path string) bool {
	if p == nil {
		return false
	}
	return !p.InSafeArea(path)
}

// normalizePrefixes expands each directory and strips glob tails so the
// entries compare as directory prefixes.
func normalizePrefixes(dirs []string) []string {
	prefixes := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		expanded := utils.ExpandPath(dir)
		expanded = strings.TrimSuffix(expanded, "/**")
		expanded = strings.TrimSuffix(expanded, "/*")
		expanded = strings.TrimSuffix(expanded, "*")
		if expanded == "" {
			continue
		}
		if !strings.HasSuffix(expanded, "/") {
			expanded += "/"
		}
		prefixes = append(prefixes, expanded)
	}
	return prefixes
}

func matchesPrefix(path string, prefixes []string) bool {
	if path == "" {
		return false
	}
	candidate := utils.ExpandPath(path)
	if !strings.HasSuffix(candidate, "/") {
		candidate += "/"
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(candidate, prefix) {
			return true
		}
	}
	return false
}
