package scanner

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WinnyKing57/WinClean-sub000/internal/config"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

func TestDefaultRegistry_BuildsScannerPerEnabledProfile(t *testing.T) {
	cfg, err := config.LoadEmbedded()
	require.NoError(t, err)

	r := DefaultRegistryWithFS(afero.NewMemMapFs(), cfg)

	enabled := 0
	for _, p := range cfg.Profiles {
		if !p.Disabled {
			enabled++
		}
	}
	assert.Len(t, r.All(), enabled)
}

func TestDefaultRegistry_SkipsDisabledProfiles(t *testing.T) {
	cfg, err := config.LoadEmbedded()
	require.NoError(t, err)

	r := DefaultRegistryWithFS(afero.NewMemMapFs(), cfg)

	_, ok := r.Get("duplicates")
	assert.False(t, ok, "the duplicates profile ships disabled")
}

func TestDefaultRegistry_RoutesProfilesToScannerTypes(t *testing.T) {
	cfg := &config.Config{
		Settings: config.Settings{RetentionStrategy: "first"},
		Profiles: []types.Profile{
			{ID: "plain", Name: "Plain", Category: "cache", Safety: types.SafetyLevelSafe, Kind: types.ActionClearCache, Paths: []string{"/cache/*"}},
			{ID: "app", Name: "App", Category: "app_cache", Safety: types.SafetyLevelSafe, Databases: []string{"/profile/*.sqlite"}},
			{ID: "dups", Name: "Dups", Category: "duplicates", Safety: types.SafetyLevelModerate, Kind: types.ActionRemoveDuplicateCopy, Paths: []string{"/data"}},
		},
	}

	r := DefaultRegistryWithFS(afero.NewMemMapFs(), cfg)

	plain, ok := r.Get("plain")
	require.True(t, ok)
	assert.IsType(t, &PathScanner{}, plain)

	app, ok := r.Get("app")
	require.True(t, ok)
	assert.IsType(t, &AppScanner{}, app)

	dups, ok := r.Get("dups")
	require.True(t, ok)
	assert.IsType(t, &DuplicateScanner{}, dups)
}

func TestDefaultRegistry_CommandOnlyProfileGetsAppScanner(t *testing.T) {
	cfg := &config.Config{
		Profiles: []types.Profile{
			{ID: "pkg", Name: "Pkg", Category: "packages", Safety: types.SafetyLevelRisky, Commands: []string{"pkgtool clean"}},
		},
	}

	r := DefaultRegistryWithFS(afero.NewMemMapFs(), cfg)

	s, ok := r.Get("pkg")
	require.True(t, ok)
	assert.IsType(t, &AppScanner{}, s)
}
