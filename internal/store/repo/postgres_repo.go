package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo stores each key as one row of ctf_kv with a version counter for compare-and-set.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

// EnsureTable creates the ctf_kv table if not exists (idempotent).
func (r *PostgresRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ctf_kv (
  key TEXT PRIMARY KEY,
  value JSONB NOT NULL,
  version BIGINT NOT NULL DEFAULT 1,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, key string) ([]byte, int64, error) {
	const q = `SELECT value, version FROM ctf_kv WHERE key=$1`
	var (
		value   []byte
		version int64
	)
	if err := r.db.QueryRowxContext(ctx, q, key).Scan(&value, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return value, version, nil
}

func (r *PostgresRepo) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	var (
		next int64
		err  error
	)
	if expected == 0 {
		const q = `INSERT INTO ctf_kv (key, value, version, updated_at) VALUES ($1, $2, 1, NOW()) ON CONFLICT (key) DO NOTHING RETURNING version`
		err = r.db.GetContext(ctx, &next, q, key, string(value))
	} else {
		const q = `UPDATE ctf_kv SET value=$2, version=version+1, updated_at=NOW() WHERE key=$1 AND version=$3 RETURNING version`
		err = r.db.GetContext(ctx, &next, q, key, string(value), expected)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrVersionConflict
		}
		return 0, err
	}
	return next, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM ctf_kv WHERE key=$1`, key)
	return err
}
