package scanner

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// Scans are disk bound, so the fan-out stays modest.
const defaultScanConcurrency = 4

// Service runs the available scanners concurrently and pools their
// proposals. One failing scanner never stops the others.
type Service struct {
	registry *Registry
	limit    int
}

func NewService(registry *Registry) *Service {
	return &Service{registry: registry, limit: defaultScanConcurrency}
}

// ScanAll runs every available scanner.
func (s *Service) ScanAll(ctx context.Context) ([]types.CleaningAction, map[string]error) {
	return s.ScanCategories(ctx, nil)
}

// ScanCategories runs the available scanners whose profile category is
// listed. An empty list means all of them. Failures are returned per
// profile ID alongside whatever the other scanners found.
func (s *Service) ScanCategories(ctx context.Context, categories []string) ([]types.CleaningAction, map[string]error) {
	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	scanners := s.registry.Available()

	var mu sync.Mutex
	actions := make([]types.CleaningAction, 0)
	failures := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	ran := 0
	for _, sc := range scanners {
		profile := sc.Profile()
		if len(wanted) > 0 {
			if _, ok := wanted[profile.Category]; !ok {
				continue
			}
		}
		ran++
		g.Go(func() error {
			found, err := sc.Scan(gctx)
			mu.Lock()
			defer mu.Unlock()
			actions = append(actions, found...)
			if err != nil {
				logger.Warn("scanner failed", "profile", profile.ID, "error", err)
				failures[profile.ID] = err
			} else {
				logger.Debug("scanner finished", "profile", profile.ID, "actions", len(found))
			}
			return nil
		})
	}
	// Failures travel through the map, so Wait has nothing to report.
	_ = g.Wait()

	sortActions(actions)
	logger.Info("scan finished", "scanners", ran, "actions", len(actions), "failures", len(failures))
	return actions, failures
}

// sortActions orders proposals for stable presentation: by category,
// then biggest estimate first.
func sortActions(actions []types.CleaningAction) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Category != actions[j].Category {
			return actions[i].Category < actions[j].Category
		}
		if actions[i].EstimatedBytes != actions[j].EstimatedBytes {
			return actions[i].EstimatedBytes > actions[j].EstimatedBytes
		}
		return actions[i].Target < actions[j].Target
	})
}
