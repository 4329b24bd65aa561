package scanner

import (
	"context"
	"sort"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// Scanner inspects the area described by one profile and proposes
// cleaning actions for it. Scan never mutates the filesystem.
type Scanner interface {
	Profile() types.Profile
	IsAvailable() bool
	Scan(ctx context.Context) ([]types.CleaningAction, error)
}

// Registry holds scanners keyed by profile ID.
type Registry struct {
	scanners map[string]Scanner
}

func NewRegistry() *Registry {
	return &Registry{scanners: make(map[string]Scanner)}
}

func (r *Registry) Register(s Scanner) {
	r.scanners[s.Profile().ID] = s
}

func (r *Registry) Get(id string) (Scanner, bool) {
	s, ok := r.scanners[id]
	return s, ok
}

func (r *Registry) All() []Scanner {
	result := make([]Scanner, 0, len(r.scanners))
	for _, s := range r.scanners {
		result = append(result, s)
	}
	sortByProfileID(result)
	return result
}

func (r *Registry) Available() []Scanner {
	result := make([]Scanner, 0)
	for _, s := range r.scanners {
		if s.IsAvailable() {
			result = append(result, s)
		}
	}
	sortByProfileID(result)
	return result
}

// Sort for consistent ordering
func sortByProfileID(scanners []Scanner) {
	sort.Slice(scanners, func(i, j int) bool {
		return scanners[i].Profile().ID < scanners[j].Profile().ID
	})
}
