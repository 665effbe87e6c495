package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"roomcast/internal/app/db"
)

const (
	sqliteLoadSnapshot = `SELECT payload FROM history_snapshots WHERE id = 1`

	sqliteSaveSnapshot = `
INSERT INTO history_snapshots (id, payload, updated_at)
VALUES (1, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
)

// sqliteStore keeps the snapshot as the only row of history_snapshots in an embedded database.
type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(ctx context.Context, path string) (*sqliteStore, error) {
	if path == "" {
		return nil, errors.New("storage: sqlite path is required")
	}

	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{db: sqlDB}, nil
}

func (s *sqliteStore) Load(ctx context.Context) ([]byte, error) {
	var payload string
	if err := s.db.QueryRowContext(ctx, sqliteLoadSnapshot).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load history snapshot: %w", err)
	}
	return []byte(payload), nil
}

func (s *sqliteStore) Save(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx, sqliteSaveSnapshot, string(data)); err != nil {
		return fmt.Errorf("failed to save history snapshot: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
