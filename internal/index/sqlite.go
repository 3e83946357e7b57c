// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the index in a SQLite table keyed by (code, path).
// Each Upsert commits immediately, so concurrent runs do not lose updates.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sec_code_paths (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL,
			path TEXT NOT NULL,
			added_at TEXT NOT NULL,
			UNIQUE(code, path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sec_code_paths_code ON sec_code_paths(code)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Upsert(ctx context.Context, code, path string) error {
	if code == "" {
		return fmt.Errorf("upsert %s: empty security code", path)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sec_code_paths (code, path, added_at) VALUES (?, ?, ?)
		 ON CONFLICT(code, path) DO NOTHING`,
		code, path, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", code, err)
	}
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context) error {
	return ctx.Err()
}

func (s *SQLiteStore) Paths(ctx context.Context, code string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM sec_code_paths WHERE code = ? ORDER BY seq`, code)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", code, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, path FROM sec_code_paths ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var code, p string
		if err := rows.Scan(&code, &p); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out[code] = append(out[code], p)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
