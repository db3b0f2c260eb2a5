package namestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists resolved station names in a SQLite database so restarts
// and scheduled runs do not refetch them. It implements stationinfo.NameStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("namestore: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("namestore: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("namestore: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("namestore: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetName returns the stored name of a station, if any.
func (s *Store) GetName(ctx context.Context, id int) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM station_names WHERE station_id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get station name %d: %w", id, err)
	}
	return name, true, nil
}

// PutName inserts or refreshes the name of a station.
func (s *Store) PutName(ctx context.Context, id int, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO station_names (station_id, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`, id, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put station name %d: %w", id, err)
	}
	return nil
}

// Count returns the number of stored names.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM station_names`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count station names: %w", err)
	}
	return n, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS station_names (
			station_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}
