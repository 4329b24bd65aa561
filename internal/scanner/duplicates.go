package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/dedup"
	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

// DuplicateOptions carries the detection knobs the settings provide.
type DuplicateOptions struct {
	MinSize  int64
	Strategy dedup.Strategy
	Workers  int
}

// DuplicateScanner turns duplicate groups under the profile's roots
// into one removal action per group, kept copy first in the target
// list.
type DuplicateScanner struct {
	fs       afero.Fs
	profile  types.Profile
	policy   *Policy
	detector *dedup.Detector
	selector *dedup.Selector
	opts     DuplicateOptions
}

func NewDuplicateScanner(profile types.Profile, policy *Policy, opts DuplicateOptions) *DuplicateScanner {
	return NewDuplicateScannerWithFS(afero.NewOsFs(), profile, policy, opts)
}

func NewDuplicateScannerWithFS(fsys afero.Fs, profile types.Profile, policy *Policy, opts DuplicateOptions) *DuplicateScanner {
	return &DuplicateScanner{
		fs:       fsys,
		profile:  profile,
		policy:   policy,
		detector: dedup.NewDetectorWithFS(fsys, opts.Workers),
		selector: dedup.NewSelectorWithFS(fsys),
		opts:     opts,
	}
}

func (s *DuplicateScanner) Profile() types.Profile {
	return s.profile
}

func (s *DuplicateScanner) IsAvailable() bool {
	for _, root := range s.profile.Paths {
		if utils.PathExists(s.fs, utils.ExpandPath(root)) {
			return true
		}
	}
	return false
}

func (s *DuplicateScanner) Scan(ctx context.Context) ([]types.CleaningAction, error) {
	// Roots may overlap, so groups merge by digest and the first root
	// to report one wins.
	merged := make(map[string]*types.DuplicateGroup)

	for _, root := range s.profile.Paths {
		expanded := utils.ExpandPath(root)
		if !utils.PathExists(s.fs, expanded) {
			continue
		}
		groups, err := s.detector.FindDuplicates(ctx, expanded, s.opts.MinSize)
		for digest, group := range groups {
			if _, dup := merged[digest]; !dup {
				merged[digest] = group
			}
		}
		if err != nil {
			return s.actions(merged), err
		}
	}

	return s.actions(merged), nil
}

func (s *DuplicateScanner) actions(groups map[string]*types.DuplicateGroup) []types.CleaningAction {
	actions := make([]types.CleaningAction, 0, len(groups))

	for _, group := range groups {
		if s.anyProtected(group.Paths) {
			logger.Debug("skipping group with protected member", "profile", s.profile.ID, "digest", group.Digest)
			continue
		}

		keep, remove := s.selector.Partition(group, s.opts.Strategy)
		if keep == "" || len(remove) == 0 {
			continue
		}

		targets := append([]string{keep}, remove...)
		actions = append(actions, types.CleaningAction{
			Kind:           types.ActionRemoveDuplicateCopy,
			Target:         types.JoinTargets(targets),
			EstimatedBytes: group.WastedBytes,
			Description:    fmt.Sprintf("%s: %d copies of %s", s.profile.Name, len(group.Paths), filepath.Base(keep)),
			Safety:         s.policy.ConfineAll(s.profile.Safety, remove),
			Category:       s.profile.Category,
			Reversible:     s.reversible(remove),
		})
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].EstimatedBytes != actions[j].EstimatedBytes {
			return actions[i].EstimatedBytes > actions[j].EstimatedBytes
		}
		return actions[i].Target < actions[j].Target
	})
	return actions
}

func (s *DuplicateScanner) anyProtected(paths []string) bool {
	for _, path := range paths {
		if !s.policy.Allows(path) {
			return true
		}
	}
	return false
}

func (s *DuplicateScanner) reversible(remove []string) bool {
	if s.profile.Reversible {
		return true
	}
	for _, path := range remove {
		if s.policy.RequiresBackup(path) {
			return true
		}
	}
	return false
}
