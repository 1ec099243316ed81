package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema mirrors the document model: owner and author are plain references
// without foreign keys, reviews hang off listings through listing_id.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		image_url      TEXT NOT NULL DEFAULT '',
		image_filename TEXT NOT NULL DEFAULT '',
		price          DOUBLE PRECISION NOT NULL DEFAULT 0,
		location       TEXT NOT NULL DEFAULT '',
		country        TEXT NOT NULL DEFAULT '',
		zip            TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT '',
		owner_id       TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS listings_category_idx ON listings (category)`,
	`CREATE INDEX IF NOT EXISTS listings_created_idx ON listings (created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		listing_id TEXT REFERENCES listings (id) ON DELETE CASCADE,
		comment    TEXT NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		author_id  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_listing_idx ON reviews (listing_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_idx ON sessions (expires_at)`,
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
