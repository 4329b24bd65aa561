package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

func TestLoadEmbedded_ReturnsNonNil(t *testing.T) {
	cfg, err := LoadEmbedded()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadEmbedded_HasProfiles(t *testing.T) {
	cfg, err := LoadEmbedded()

	assert.NoError(t, err)
	assert.NotEmpty(t, cfg.Profiles)
}

func TestLoadEmbedded_KnownProfilesExist(t *testing.T) {
	cfg, _ := LoadEmbedded()

	profileMap := make(map[string]bool)
	for _, p := range cfg.Profiles {
		profileMap[p.ID] = true
	}

	assert.True(t, profileMap["user-cache"])
	assert.True(t, profileMap["rotated-logs"])
	assert.True(t, profileMap["temp-files"])
	assert.True(t, profileMap["duplicates"])
}

func TestLoadEmbedded_ProfilesHaveRequiredFields(t *testing.T) {
	cfg, _ := LoadEmbedded()

	for _, p := range cfg.Profiles {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name, "Profile '%s' has empty Name", p.ID)
		assert.NotEmpty(t, p.Safety, "Profile '%s' has empty Safety", p.ID)
		assert.NotEmpty(t, p.Category, "Profile '%s' has empty Category", p.ID)
	}
}

func TestLoadEmbedded_SafetyLevelsAreValid(t *testing.T) {
	cfg, _ := LoadEmbedded()

	validSafety := map[types.SafetyLevel]bool{
		types.SafetyLevelSafe:     true,
		types.SafetyLevelModerate: true,
		types.SafetyLevelRisky:    true,
	}

	for _, p := range cfg.Profiles {
		assert.True(t, validSafety[p.Safety], "Profile '%s' has invalid safety: %s", p.ID, p.Safety)
	}
}

func TestLoadEmbedded_KindsAreValid(t *testing.T) {
	cfg, _ := LoadEmbedded()

	for _, p := range cfg.Profiles {
		if p.Kind == "" {
			continue
		}
		assert.True(t, p.Kind.Valid(), "Profile '%s' has invalid kind: %s", p.ID, p.Kind)
	}
}

func TestLoadEmbedded_DuplicatesDisabledByDefault(t *testing.T) {
	cfg, _ := LoadEmbedded()

	p, ok := cfg.Profile("duplicates")
	require.True(t, ok)
	assert.True(t, p.Disabled)
}

func TestLoadEmbedded_SettingsDefaults(t *testing.T) {
	cfg, err := LoadEmbedded()
	require.NoError(t, err)

	assert.Equal(t, "shortest_path", cfg.Settings.RetentionStrategy)
	assert.False(t, cfg.Settings.RequireBackup)
	assert.Equal(t, 300, cfg.Settings.CommandTimeoutSeconds)
	assert.Equal(t, 30, cfg.Settings.MaxBackupAgeDays)
	assert.NotEmpty(t, cfg.Settings.ProtectedDirectories)
}

func TestMerge_NilOverlayKeepsConfig(t *testing.T) {
	cfg, _ := LoadEmbedded()
	before := len(cfg.Profiles)

	merged := Merge(cfg, nil)

	assert.Equal(t, before, len(merged.Profiles))
}

func TestMerge_SettingsOverrides(t *testing.T) {
	cfg, _ := LoadEmbedded()
	workers := 8
	strategy := "newest"
	requireBackup := true

	merged := Merge(cfg, &UserConfig{
		Workers:           &workers,
		RetentionStrategy: &strategy,
		RequireBackup:     &requireBackup,
	})

	assert.Equal(t, 8, merged.Settings.Workers)
	assert.Equal(t, "newest", merged.Settings.RetentionStrategy)
	assert.True(t, merged.Settings.RequireBackup)
}

func TestMerge_ProfileOverride_DisabledAndPaths(t *testing.T) {
	cfg, _ := LoadEmbedded()
	disabled := true

	merged := Merge(cfg, &UserConfig{
		ProfileOverrides: map[string]ProfileOverride{
			"user-cache": {
				Disabled: &disabled,
				Paths:    []string{"~/extra-cache/*"},
			},
		},
	})

	p, ok := merged.Profile("user-cache")
	require.True(t, ok)
	assert.True(t, p.Disabled)
	assert.Contains(t, p.Paths, "~/extra-cache/*")
}

func TestMerge_CustomProfileAppended(t *testing.T) {
	cfg, _ := LoadEmbedded()
	before := len(cfg.Profiles)

	merged := Merge(cfg, &UserConfig{
		CustomProfiles: []types.Profile{
			{
				ID:       "my-builds",
				Name:     "Build Artifacts",
				Category: "temp",
				Safety:   types.SafetyLevelModerate,
				Kind:     types.ActionDeleteDirectory,
				Paths:    []string{"~/projects/*/build"},
			},
		},
	})

	assert.Len(t, merged.Profiles, before+1)
	_, ok := merged.Profile("my-builds")
	assert.True(t, ok)
}

func TestMerge_CustomProfileReplacesOnIDConflict(t *testing.T) {
	cfg, _ := LoadEmbedded()
	before := len(cfg.Profiles)

	merged := Merge(cfg, &UserConfig{
		CustomProfiles: []types.Profile{
			{
				ID:       "user-cache",
				Name:     "My Cache Rules",
				Category: "cache",
				Safety:   types.SafetyLevelSafe,
				Kind:     types.ActionClearCache,
				Paths:    []string{"~/.cache/only-this"},
			},
		},
	})

	assert.Len(t, merged.Profiles, before)
	p, _ := merged.Profile("user-cache")
	assert.Equal(t, "My Cache Rules", p.Name)
	assert.Equal(t, []string{"~/.cache/only-this"}, p.Paths)
}

func TestMerge_InvalidCustomProfileSkipped(t *testing.T) {
	cfg, _ := LoadEmbedded()
	before := len(cfg.Profiles)

	merged := Merge(cfg, &UserConfig{
		CustomProfiles: []types.Profile{
			{ID: "", Name: "nameless"},
			{ID: "bad-safety", Name: "Bad", Safety: types.SafetyLevel("extreme")},
			{ID: "bad-kind", Name: "Bad", Kind: types.ActionKind("teleport")},
		},
	})

	assert.Len(t, merged.Profiles, before)
}

func TestMerge_ExcludedPathsLandOnProfile(t *testing.T) {
	cfg, _ := LoadEmbedded()

	merged := Merge(cfg, &UserConfig{
		ExcludedPaths: map[string][]string{
			"user-cache": {"~/.cache/important-app"},
		},
	})

	p, _ := merged.Profile("user-cache")
	assert.Contains(t, p.Exclude, "~/.cache/important-app")
}

func TestLoadUser_MissingFileYieldsEmptyOverlay(t *testing.T) {
	original := userConfigPath
	userConfigPath = func() (string, error) {
		return filepath.Join(t.TempDir(), "nope", "config.yaml"), nil
	}
	defer func() { userConfigPath = original }()

	userCfg, err := LoadUser()

	require.NoError(t, err)
	assert.NotNil(t, userCfg)
	assert.Nil(t, userCfg.Workers)
}

func TestUserConfig_SaveAndLoadRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	original := userConfigPath
	userConfigPath = func() (string, error) {
		return filepath.Join(tmp, "config.yaml"), nil
	}
	defer func() { userConfigPath = original }()

	workers := 4
	saved := &UserConfig{
		Workers: &workers,
		ExcludedPaths: map[string][]string{
			"user-cache": {"~/.cache/keepme"},
		},
	}
	require.NoError(t, saved.Save())

	loaded, err := LoadUser()
	require.NoError(t, err)
	require.NotNil(t, loaded.Workers)
	assert.Equal(t, 4, *loaded.Workers)
	assert.Equal(t, []string{"~/.cache/keepme"}, loaded.ExcludedPaths["user-cache"])
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
