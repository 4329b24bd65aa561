package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

const (
	backupSuffix    = ".backup"
	metaSuffix      = ".meta"
	timestampLayout = "20060102_150405"
)

// backupMeta is the sidecar record that makes a backup restorable after a
// process restart.
type backupMeta struct {
	OriginalPath string    `yaml:"original_path"`
	CreatedAt    time.Time `yaml:"created_at"`
	SizeBytes    int64     `yaml:"size_bytes"`
	IsDirectory  bool      `yaml:"is_directory"`
}

// Backup describes one entry in the backup area.
type Backup struct {
	Name         string
	OriginalPath string
	CreatedAt    time.Time
	SizeBytes    int64
	IsDirectory  bool
}

// BackupManager owns the backup area: timestamped copies of targets made
// before a reversible action mutates them.
type BackupManager struct {
	fs      afero.Fs
	dir     string
	maxAge  time.Duration
	maxSize int64
	now     func() time.Time
}

// NewBackupManager creates a manager on the host filesystem. maxAge and
// maxSize bound Purge; zero disables the respective limit.
func NewBackupManager(dir string, maxAge time.Duration, maxSize int64) *BackupManager {
	return NewBackupManagerWithFS(afero.NewOsFs(), dir, maxAge, maxSize)
}

// NewBackupManagerWithFS creates a manager on the given filesystem.
func NewBackupManagerWithFS(fsys afero.Fs, dir string, maxAge time.Duration, maxSize int64) *BackupManager {
	return &BackupManager{
		fs:      fsys,
		dir:     dir,
		maxAge:  maxAge,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Dir returns the backup area path.
func (m *BackupManager) Dir() string {
	return m.dir
}

// Create copies path into the backup area under a timestamped name and
// writes a metadata sidecar recording the original path. It returns the
// backup name.
func (m *BackupManager) Create(path string) (string, error) {
	info, err := m.fs.Stat(path)
	if err != nil {
		return "", err
	}

	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return "", err
	}

	stamp := m.now().Format(timestampLayout)
	name := fmt.Sprintf("%s_%s%s", filepath.Base(path), stamp, backupSuffix)
	// Same basename backed up within one second gets a numeric suffix.
	for i := 1; utils.PathExists(m.fs, filepath.Join(m.dir, name)); i++ {
		name = fmt.Sprintf("%s_%s_%d%s", filepath.Base(path), stamp, i, backupSuffix)
	}
	dst := filepath.Join(m.dir, name)

	var size int64
	if info.IsDir() {
		if err := utils.CopyDir(m.fs, path, dst); err != nil {
			return "", err
		}
		size, _ = utils.DirSize(m.fs, dst)
	} else {
		if err := utils.CopyFile(m.fs, path, dst); err != nil {
			return "", err
		}
		size = info.Size()
	}

	meta := backupMeta{
		OriginalPath: path,
		CreatedAt:    m.now(),
		SizeBytes:    size,
		IsDirectory:  info.IsDir(),
	}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(m.fs, dst+metaSuffix, data, 0o600); err != nil {
		return "", err
	}

	logger.Debug("backup created", "original", path, "backup", name)
	return name, nil
}

// Restore copies the named backup over its original path, replacing any
// current content there. Directories are replaced as whole trees.
func (m *BackupManager) Restore(name string) error {
	src := filepath.Join(m.dir, name)
	if !utils.PathExists(m.fs, src) {
		return fmt.Errorf("backup not found: %s", name)
	}

	meta, err := m.readMeta(src + metaSuffix)
	if err != nil {
		return fmt.Errorf("backup %s has no readable metadata: %w", name, err)
	}

	if meta.IsDirectory {
		if err := m.fs.RemoveAll(meta.OriginalPath); err != nil {
			return err
		}
		return utils.CopyDir(m.fs, src, meta.OriginalPath)
	}

	if err := m.fs.MkdirAll(filepath.Dir(meta.OriginalPath), 0o755); err != nil {
		return err
	}
	return utils.CopyFile(m.fs, src, meta.OriginalPath)
}

// List returns every backup in the area, eldest first. A missing area is
// an empty list, not an error.
func (m *BackupManager) List() ([]Backup, error) {
	entries, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Backup
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}

		b := Backup{
			Name:        entry.Name(),
			CreatedAt:   entry.ModTime(),
			SizeBytes:   entry.Size(),
			IsDirectory: entry.IsDir(),
		}
		if meta, err := m.readMeta(filepath.Join(m.dir, entry.Name()+metaSuffix)); err == nil {
			b.OriginalPath = meta.OriginalPath
			b.CreatedAt = meta.CreatedAt
			b.SizeBytes = meta.SizeBytes
			b.IsDirectory = meta.IsDirectory
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.Before(backups[j].CreatedAt)
	})
	return backups, nil
}

// Purge removes backups older than the age limit, then eldest entries
// until the area fits the size limit. Entries that cannot be removed are
// skipped. It returns the number of purged backups and their total size.
func (m *BackupManager) Purge() (int, int64) {
	backups, err := m.List()
	if err != nil {
		logger.Warn("backup purge skipped", "error", err)
		return 0, 0
	}

	var (
		removed int
		freed   int64
		kept    []Backup
	)

	cutoff := m.now().Add(-m.maxAge)
	for _, b := range backups {
		if m.maxAge > 0 && b.CreatedAt.Before(cutoff) {
			if m.remove(b) {
				removed++
				freed += b.SizeBytes
				continue
			}
		}
		kept = append(kept, b)
	}

	if m.maxSize > 0 {
		var total int64
		for _, b := range kept {
			total += b.SizeBytes
		}
		// kept is still eldest first
		for _, b := range kept {
			if total <= m.maxSize {
				break
			}
			if m.remove(b) {
				removed++
				freed += b.SizeBytes
				total -= b.SizeBytes
			}
		}
	}

	if removed > 0 {
		logger.Info("backups purged", "removed", removed, "freed", freed)
	}
	return removed, freed
}

func (m *BackupManager) remove(b Backup) bool {
	target := filepath.Join(m.dir, b.Name)
	if err := m.fs.RemoveAll(target); err != nil {
		logger.Debug("backup not purged", "backup", b.Name, "error", err)
		return false
	}
	if err := m.fs.Remove(target + metaSuffix); err != nil && !os.IsNotExist(err) {
		logger.Debug("backup metadata not removed", "backup", b.Name, "error", err)
	}
	return true
}

func (m *BackupManager) readMeta(path string) (backupMeta, error) {
	var meta backupMeta
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}
