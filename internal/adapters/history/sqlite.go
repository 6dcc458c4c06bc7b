// Package history provides run history recorders.
// SQLiteRecorder persists runs; MemoryRecorder keeps them for the process lifetime.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// SQLiteRecorder implements ports.RunRecorder with SQLite persistence.
type SQLiteRecorder struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteRecorder opens (and creates if needed) the history database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = filepath.Join("data", "history.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteRecorder{
		db:   db,
		path: path,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return store, nil
}

// initSchema creates the necessary tables.
func (s *SQLiteRecorder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		loaded INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		selected INTEGER NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores one run.
func (s *SQLiteRecorder) Record(ctx context.Context, rec entities.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, question, model, loaded, skipped, selected, answer, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Question,
		rec.Model,
		rec.Loaded,
		rec.Skipped,
		rec.Selected,
		rec.Answer,
		rec.Error,
		rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]entities.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, model, loaded, skipped, selected, answer, error, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []entities.RunRecord
	for rows.Next() {
		var rec entities.RunRecord
		var createdAt int64

		err := rows.Scan(&rec.ID, &rec.Question, &rec.Model, &rec.Loaded, &rec.Skipped,
			&rec.Selected, &rec.Answer, &rec.Error, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the number of stored runs.
func (s *SQLiteRecorder) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteRecorder) Close() error {
	return s.db.Close()
}
