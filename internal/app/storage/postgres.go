package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomcast/internal/app/db"
	"roomcast/internal/pkg/logx"
)

const (
	pgLoadSnapshot = `SELECT payload FROM history_snapshots WHERE id = 1`

	pgSaveSnapshot = `
INSERT INTO history_snapshots (id, payload, updated_at)
VALUES (1, $1::jsonb, now())
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// postgresStore keeps the snapshot as the only row of history_snapshots.
type postgresStore struct {
	pool *pgxpool.Pool
}

func newPostgresStore(ctx context.Context, dsn string) (*postgresStore, error) {
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{pool: pool}, nil
}

func (s *postgresStore) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	if err := s.pool.QueryRow(ctx, pgLoadSnapshot).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load history snapshot: %w", err)
	}
	return payload, nil
}

func (s *postgresStore) Save(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx, pgSaveSnapshot, string(data))
	if err != nil && db.IsRetryable(err) {
		logx.Warn("Transient error saving history snapshot, retrying once", "error", err.Error())
		_, err = s.pool.Exec(ctx, pgSaveSnapshot, string(data))
	}
	if err != nil {
		return fmt.Errorf("failed to save history snapshot: %w", err)
	}
	return nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
