package scanner

import (
	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/config"
	"github.com/WinnyKing57/WinClean-sub000/internal/dedup"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// DefaultRegistry builds a scanner per enabled profile, wired to the
// policy derived from the settings.
func DefaultRegistry(cfg *config.Config) *Registry {
	return DefaultRegistryWithFS(afero.NewOsFs(), cfg)
}

func DefaultRegistryWithFS(fsys afero.Fs, cfg *config.Config) *Registry {
	policy := NewPolicy(cfg.Settings.SafeDirectories, cfg.Settings.ProtectedDirectories)
	r := NewRegistry()

	for _, profile := range cfg.Profiles {
		if profile.Disabled {
			continue
		}

		var s Scanner
		switch {
		case profile.Kind == types.ActionRemoveDuplicateCopy:
			s = NewDuplicateScannerWithFS(fsys, profile, policy, DuplicateOptions{
				MinSize:  cfg.Settings.MinDuplicateSizeBytes,
				Strategy: dedup.ParseStrategy(cfg.Settings.RetentionStrategy),
				Workers:  cfg.Settings.Workers,
			})
		case profile.Category == "app_cache" || len(profile.Databases) > 0 || len(profile.Commands) > 0:
			s = NewAppScannerWithFS(fsys, profile, policy)
		default:
			s = NewPathScannerWithFS(fsys, profile, policy)
		}
		r.Register(s)
	}

	return r
}
