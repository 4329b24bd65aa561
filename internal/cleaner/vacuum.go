package cleaner

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
	"github.com/WinnyKing57/WinClean-sub000/internal/utils"
)

// vacuumDatabase compacts an SQLite database in place. The file is
// snapshot-copied first; the snapshot is discarded on success and kept on
// failure for manual recovery. Freed space is the measured shrink, never
// negative.
func (e *Executor) vacuumDatabase(action *types.CleaningAction) (int64, error) {
	info, err := e.fs.Stat(action.Target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("database not found: %s", action.Target)
		}
		return 0, err
	}
	before := info.Size()

	snapshot := action.Target + ".backup"
	if err := utils.CopyFile(e.fs, action.Target, snapshot); err != nil {
		return 0, fmt.Errorf("snapshot failed: %w", err)
	}

	if err := vacuumSQLite(action.Target); err != nil {
		logger.Warn("vacuum failed, snapshot kept",
			"database", action.Target,
			"snapshot", snapshot,
			"error", err)
		return 0, fmt.Errorf("vacuum failed (snapshot kept at %s): %w", snapshot, err)
	}

	if err := e.fs.Remove(snapshot); err != nil {
		logger.Debug("vacuum snapshot not removed", "snapshot", snapshot, "error", err)
	}

	after := before
	if post, err := e.fs.Stat(action.Target); err == nil {
		after = post.Size()
	}
	freed := before - after
	if freed < 0 {
		freed = 0
	}
	return freed, nil
}

// vacuumSQLite opens the database through the host filesystem, so it only
// works on executors backed by the OS filesystem.
func vacuumSQLite(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("VACUUM")
	return err
}
