package scanner

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

const sqliteMagic = "SQLite format 3\x00"

// vacuumThreshold is the smallest reclaimable size worth a rewrite pass.
const vacuumThreshold = 1 << 20

// AppScanner extends the path scanner for application profiles: cache
// paths are cleared like any other profile, sqlite databases become
// vacuum candidates, and declared commands are passed through.
type AppScanner struct {
	*PathScanner
}

func NewAppScanner(profile types.Profile, policy *Policy) *AppScanner {
	return NewAppScannerWithFS(afero.NewOsFs(), profile, policy)
}

func NewAppScannerWithFS(fsys afero.Fs, profile types.Profile, policy *Policy) *AppScanner {
	if profile.Kind == "" {
		profile.Kind = types.ActionClearCache
	}
	return &AppScanner{PathScanner: NewPathScannerWithFS(fsys, profile, policy)}
}

func (s *AppScanner) IsAvailable() bool {
	if s.PathScanner.IsAvailable() {
		return true
	}
	for _, pattern := range s.profile.Databases {
		matches, err := utils.GlobPaths(s.fs, pattern)
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

func (s *AppScanner) Scan(ctx context.Context) ([]types.CleaningAction, error) {
	actions, err := s.PathScanner.Scan(ctx)
	if err != nil {
		return actions, err
	}

	dbActions, err := s.scanDatabases(ctx)
	actions = append(actions, dbActions...)
	if err != nil {
		return actions, err
	}

	actions = append(actions, s.commandActions()...)

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Target < actions[j].Target
	})
	return actions, nil
}

func (s *AppScanner) scanDatabases(ctx context.Context) ([]types.CleaningAction, error) {
	actions := make([]types.CleaningAction, 0)
	seen := make(map[string]struct{})

	for _, pattern := range s.profile.Databases {
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

			action, ok := s.inspectDatabase(match)
			if ok {
				actions = append(actions, action)
			}
		}
	}
	return actions, nil
}

// inspectDatabase sizes the freelist of one database. Databases with
// too little reclaimable space are skipped.
func (s *AppScanner) inspectDatabase(path string) (types.CleaningAction, bool) {
	if !s.policy.Allows(path) {
		logger.Debug("skipping protected path", "profile", s.profile.ID, "path", path)
		return types.CleaningAction{}, false
	}

	info, err := s.fs.Stat(path)
	if err != nil || info.IsDir() {
		return types.CleaningAction{}, false
	}

	free, err := sqliteFreeBytes(s.fs, path)
	if err != nil {
		logger.Debug("not a vacuum candidate", "profile", s.profile.ID, "path", path, "error", err)
		return types.CleaningAction{}, false
	}
	// The freelist overstates what a rewrite actually gives back once
	// pages are repacked, so the estimate is capped at half the file.
	if half := info.Size() / 2; free > half {
		free = half
	}
	if free < vacuumThreshold {
		return types.CleaningAction{}, false
	}

	return types.CleaningAction{
		Kind:           types.ActionVacuumDatabase,
		Target:         path,
		EstimatedBytes: free,
		Description:    fmt.Sprintf("%s: vacuum %s", s.profile.Name, filepath.Base(path)),
		Safety:         s.policy.Confine(s.profile.Safety, path),
		Category:       s.profile.Category,
	}, true
}

func (s *AppScanner) commandActions() []types.CleaningAction {
	actions := make([]types.CleaningAction, 0, len(s.profile.Commands))
	for _, cmd := range s.profile.Commands {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		actions = append(actions, types.CleaningAction{
			Kind:        types.ActionRunDeclaredCommand,
			Target:      cmd,
			Description: fmt.Sprintf("%s: %s", s.profile.Name, cmd),
			Safety:      s.profile.Safety,
			Category:    s.profile.Category,
		})
	}
	return actions
}

// sqliteFreeBytes reads the database header and returns the bytes held
// on the freelist. The header alone is enough; the database is never
// opened through the driver during a scan.
func sqliteFreeBytes(fsys afero.Fs, path string) (int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	header := make([]byte, 40)
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, fmt.Errorf("short header: %w", err)
	}
	if string(header[:16]) != sqliteMagic {
		return 0, fmt.Errorf("not a sqlite database")
	}

	// Page size lives at offset 16, big endian, with 1 meaning 64 KiB.
	pageSize := int64(binary.BigEndian.Uint16(header[16:18]))
	if pageSize == 1 {
		pageSize = 65536
	}
	freePages := int64(binary.BigEndian.Uint32(header[36:40]))
	return freePages * pageSize, nil
}
