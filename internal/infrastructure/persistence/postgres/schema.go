package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsSQL = `CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	key        text NOT NULL,
	data       jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
)`

// EnsureSchema creates the documents table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createDocumentsSQL)
	return err
}
