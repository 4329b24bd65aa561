package dedup

import (
	"time"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// Strategy names the rule for choosing which copy of a duplicate group
// survives.
type Strategy string

const (
	StrategyFirst        Strategy = "first"
	StrategyShortestPath Strategy = "shortest_path"
	StrategyNewest       Strategy = "newest"
	StrategyOldest       Strategy = "oldest"
)

// ParseStrategy maps a configured name to a Strategy. Unknown names fall
// back to StrategyFirst.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyFirst, StrategyShortestPath, StrategyNewest, StrategyOldest:
		return Strategy(s)
	default:
		return StrategyFirst
	}
}

// Selector chooses which members of a duplicate group to delete and
// re-verifies a group immediately before anything is removed.
type Selector struct {
	fs afero.Fs
}

// NewSelector creates a selector on the host filesystem.
func NewSelector() *Selector {
	return NewSelectorWithFS(afero.NewOsFs())
}

// NewSelectorWithFS creates a selector on the given filesystem.
func NewSelectorWithFS(fsys afero.Fs) *Selector {
	return &Selector{fs: fsys}
}

// Partition splits a group into the single kept path and the paths to
// delete, preserving the group's stored order. Groups of fewer than two
// members yield no deletions.
func (s *Selector) Partition(group *types.DuplicateGroup, strategy Strategy) (string, []string) {
	if group == nil || len(group.Paths) == 0 {
		return "", nil
	}
	if len(group.Paths) == 1 {
		return group.Paths[0], nil
	}

	keep := s.keeperIndex(group.Paths, strategy)
	remove := make([]string, 0, len(group.Paths)-1)
	for i, p := range group.Paths {
		if i == keep {
			continue
		}
		remove = append(remove, p)
	}
	return group.Paths[keep], remove
}

// SelectForDeletion returns the members of group to delete under the given
// strategy. For n members exactly n-1 paths are returned; the kept path is
// never among them.
func (s *Selector) SelectForDeletion(group *types.DuplicateGroup, strategy Strategy) []string {
	_, remove := s.Partition(group, strategy)
	return remove
}

// keeperIndex returns the index of the path to keep. Ties always resolve to
// the earliest stored index.
func (s *Selector) keeperIndex(paths []string, strategy Strategy) int {
	switch strategy {
	case StrategyShortestPath:
		keep := 0
		for i := 1; i < len(paths); i++ {
			if len(paths[i]) < len(paths[keep]) {
				keep = i
			}
		}
		return keep
	case StrategyNewest:
		return s.keeperByModTime(paths, true)
	case StrategyOldest:
		return s.keeperByModTime(paths, false)
	default:
		return 0
	}
}

// keeperByModTime picks the latest or earliest modification time among the
// paths that can be inspected. A path that cannot be inspected never wins;
// if none can, the first path is kept.
func (s *Selector) keeperByModTime(paths []string, newest bool) int {
	keep := -1
	var keepTime time.Time

	for i, p := range paths {
		info, err := s.fs.Stat(p)
		if err != nil {
			continue
		}
		mt := info.ModTime()
		switch {
		case keep == -1:
			keep = i
			keepTime = mt
		case newest && mt.After(keepTime):
			keep = i
			keepTime = mt
		case !newest && mt.Before(keepTime):
			keep = i
			keepTime = mt
		}
	}

	if keep == -1 {
		return 0
	}
	return keep
}

// Verify re-reads and re-hashes every listed path. It returns true only
// when at least two paths are listed, every one still exists, and all share
// one digest. Any missing or unreadable path fails verification.
func (s *Selector) Verify(paths []string) bool {
	if len(paths) < 2 {
		return false
	}

	first := ""
	for i, p := range paths {
		digest, err := hashFile(s.fs, p)
		if err != nil {
			return false
		}
		if i == 0 {
			first = digest
			continue
		}
		if digest != first {
			return false
		}
	}
	return true
}
