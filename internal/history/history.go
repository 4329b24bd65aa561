package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/WinnyKing57/WinClean-sub000/internal/logger"
	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	root TEXT NOT NULL,
	total_bytes INTEGER NOT NULL,
	action_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cleanings (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	kind TEXT NOT NULL,
	category TEXT NOT NULL,
	target TEXT NOT NULL,
	success INTEGER NOT NULL,
	freed_bytes INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cleanings_created ON cleanings (created_at);
CREATE INDEX IF NOT EXISTS idx_scans_created ON scans (created_at);
`

// ScanRecord is one persisted scan summary.
type ScanRecord struct {
	ID          string
	CreatedAt   time.Time
	Root        string
	TotalBytes  int64
	ActionCount int
}

// CleaningRecord is one persisted action outcome. Records from the same
// executor run share a BatchID.
type CleaningRecord struct {
	ID         string
	BatchID    string
	CreatedAt  time.Time
	Kind       types.ActionKind
	Category   string
	Target     string
	Success    bool
	FreedBytes int64
	Error      string
}

// DailyStat aggregates one day of cleaning activity.
type DailyStat struct {
	Day        string
	Actions    int
	FreedBytes int64
}

// Store persists scan summaries and cleaning outcomes in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the history database at path, creating the parent
// directory and the schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	logger.Debug("history store opened", "path", path)
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordScan persists one scan summary and returns its id.
func (s *Store) RecordScan(ctx context.Context, root string, summary types.CleaningSummary) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, created_at, root, total_bytes, action_count) VALUES (?, ?, ?, ?, ?)`,
		id, s.now().Unix(), root, summary.TotalBytes, summary.TotalActions)
	if err != nil {
		return "", fmt.Errorf("record scan: %w", err)
	}
	return id, nil
}

// RecordCleanings persists every result of one executor run under a single
// batch id, which it returns. An empty batch records nothing.
func (s *Store) RecordCleanings(ctx context.Context, results []types.CleaningResult) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	batchID := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	stamp := s.now().Unix()
	for _, r := range results {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cleanings (id, batch_id, created_at, kind, category, target, success, freed_bytes, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), batchID, stamp,
			string(r.Action.Kind), r.Action.Category, r.Action.Target,
			r.Success, r.FreedBytes, r.ErrorMessage)
		if err != nil {
			return "", fmt.Errorf("record cleaning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// RecentScans returns the latest scans, most recent first.
func (s *Store) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, root, total_bytes, action_count
		 FROM scans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var (
			r    ScanRecord
			unix int64
		)
		if err := rows.Scan(&r.ID, &unix, &r.Root, &r.TotalBytes, &r.ActionCount); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(unix, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecentCleanings returns the latest cleaning records, most recent first.
func (s *Store) RecentCleanings(ctx context.Context, limit int) ([]CleaningRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, created_at, kind, category, target, success, freed_bytes, error
		 FROM cleanings ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CleaningRecord
	for rows.Next() {
		var (
			r    CleaningRecord
			unix int64
			kind string
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &unix, &kind, &r.Category, &r.Target, &r.Success, &r.FreedBytes, &r.Error); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(unix, 0)
		r.Kind = types.ActionKind(kind)
		records = append(records, r)
	}
	return records, rows.Err()
}

// TotalFreed sums the freed bytes over every recorded cleaning.
func (s *Store) TotalFreed(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT SUM(freed_bytes) FROM cleanings`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// Trends aggregates cleaning activity per day over the trailing window.
func (s *Store) Trends(ctx context.Context, days int) ([]DailyStat, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days).Unix()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date(created_at, 'unixepoch') AS day, COUNT(*), SUM(freed_bytes)
		 FROM cleanings WHERE created_at >= ?
		 GROUP BY day ORDER BY day`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var stat DailyStat
		if err := rows.Scan(&stat.Day, &stat.Actions, &stat.FreedBytes); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// Clear removes every recorded scan and cleaning.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cleanings`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM scans`)
	return err
}
