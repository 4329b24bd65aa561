// Package config loads the embedded default profiles and merges the user
// overlay from ~/.config/winclean/config.yaml on top of them.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const (
	userConfigDir  = ".config/winclean"
	userConfigFile = "config.yaml"
)

// Settings holds the tunables shared by the dedup and cleaning engines.
type Settings struct {
	Workers               int      `yaml:"workers"`
	MinDuplicateSizeBytes int64    `yaml:"min_duplicate_size_bytes"`
	RetentionStrategy     string   `yaml:"retention_strategy"`
	RequireBackup         bool     `yaml:"require_backup"`
	CommandTimeoutSeconds int      `yaml:"command_timeout_seconds"`
	BackupDir             string   `yaml:"backup_dir"`
	MaxBackupAgeDays      int      `yaml:"max_backup_age_days"`
	MaxBackupSizeMB       int64    `yaml:"max_backup_size_mb"`
	HistoryPath           string   `yaml:"history_path"`
	SafeDirectories       []string `yaml:"safe_directories"`
	ProtectedDirectories  []string `yaml:"protected_directories"`
}

type Config struct {
	Settings Settings        `yaml:"settings"`
	Profiles []types.Profile `yaml:"profiles"`
}

// Profile returns the profile with the given ID, if present.
func (c *Config) Profile(id string) (types.Profile, bool) {
	for _, p := range c.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return types.Profile{}, false
}

// LoadEmbedded parses the compiled-in defaults.
func LoadEmbedded() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded config: %w", err)
	}
	return &cfg, nil
}

// LoadFile parses a full config from an explicit path, replacing the
// embedded defaults entirely.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load returns the embedded defaults with the user overlay applied.
func Load() (*Config, error) {
	cfg, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}

	userCfg, err := LoadUser()
	if err != nil {
		return nil, err
	}
	return Merge(cfg, userCfg), nil
}

// ProfileOverride partially overrides one default profile by ID.
type ProfileOverride struct {
	Disabled   *bool    `yaml:"disabled,omitempty"`
	Paths      []string `yaml:"paths,omitempty"`
	MaxAgeDays *int     `yaml:"max_age_days,omitempty"`
}

// UserConfig is the optional overlay stored in the user's config dir.
type UserConfig struct {
	Workers           *int    `yaml:"workers,omitempty"`
	RetentionStrategy *string `yaml:"retention_strategy,omitempty"`
	RequireBackup     *bool   `yaml:"require_backup,omitempty"`

	// ExcludedPaths maps profile ID to paths that scanner must skip.
	ExcludedPaths map[string][]string `yaml:"excluded_paths,omitempty"`
	// CustomProfiles adds user-defined profiles (ID conflicts replace defaults).
	CustomProfiles []types.Profile `yaml:"custom_profiles,omitempty"`
	// ProfileOverrides tweaks default profiles by ID.
	ProfileOverrides map[string]ProfileOverride `yaml:"profile_overrides,omitempty"`
}

var userConfigPath = defaultUserConfigPath

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, userConfigFile), nil
}

// LoadUser reads the overlay; a missing file yields an empty overlay.
func LoadUser() (*UserConfig, error) {
	path, err := userConfigPath()
	if err != nil {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, err
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse user config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the overlay back to the user's config dir.
func (u *UserConfig) Save() error {
	path, err := userConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(u)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Merge applies the user overlay to the base config. Overlay profiles win
// on ID conflicts; invalid custom profiles are skipped with a warning on
// stderr, matching how unknown overlay keys are tolerated.
func Merge(cfg *Config, userCfg *UserConfig) *Config {
	if userCfg == nil {
		return cfg
	}

	if userCfg.Workers != nil {
		cfg.Settings.Workers = *userCfg.Workers
	}
	if userCfg.RetentionStrategy != nil {
		cfg.Settings.RetentionStrategy = *userCfg.RetentionStrategy
	}
	if userCfg.RequireBackup != nil {
		cfg.Settings.RequireBackup = *userCfg.RequireBackup
	}

	cfg.Profiles = applyOverrides(cfg.Profiles, userCfg.ProfileOverrides)

	for _, custom := range userCfg.CustomProfiles {
		if err := validateProfile(custom); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping custom profile '%s': %v\n", custom.ID, err)
			continue
		}

		replaced := false
		for i, existing := range cfg.Profiles {
			if existing.ID == custom.ID {
				cfg.Profiles[i] = custom
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Profiles = append(cfg.Profiles, custom)
		}
	}

	for id, excluded := range userCfg.ExcludedPaths {
		for i := range cfg.Profiles {
			if cfg.Profiles[i].ID == id {
				cfg.Profiles[i].Exclude = append(cfg.Profiles[i].Exclude, excluded...)
			}
		}
	}

	return cfg
}

func applyOverrides(profiles []types.Profile, overrides map[string]ProfileOverride) []types.Profile {
	if len(overrides) == 0 {
		return profiles
	}

	result := make([]types.Profile, 0, len(profiles))
	for _, p := range profiles {
		override, ok := overrides[p.ID]
		if !ok {
			result = append(result, p)
			continue
		}

		if override.Disabled != nil {
			p.Disabled = *override.Disabled
		}
		if len(override.Paths) > 0 {
			p.Paths = append(p.Paths, override.Paths...)
		}
		if override.MaxAgeDays != nil {
			p.MaxAgeDays = *override.MaxAgeDays
		}
		result = append(result, p)
	}
	return result
}

func validateProfile(p types.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Safety != "" {
		if _, err := types.ParseSafetyLevel(string(p.Safety)); err != nil {
			return err
		}
	}
	if p.Kind != "" && !p.Kind.Valid() {
		return fmt.Errorf("invalid action kind '%s'", p.Kind)
	}
	return nil
}
