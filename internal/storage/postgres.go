package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createStateTable = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertState = `
INSERT INTO app_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

const selectState = `SELECT value FROM app_state WHERE key = $1`

// PostgresBackend stores collections as JSONB rows in app_state.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps an open pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the state table if it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createStateTable); err != nil {
		return errors.Wrap(err, "create app_state table")
	}
	return nil
}

func (p *PostgresBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, selectState, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", key)
	}
	return value, nil
}

func (p *PostgresBackend) Save(ctx context.Context, key string, data []byte) error {
	if _, err := p.pool.Exec(ctx, upsertState, key, string(data)); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}
