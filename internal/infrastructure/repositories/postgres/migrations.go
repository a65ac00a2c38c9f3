package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_digest TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'guest',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS videos (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	video_url TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS videos_user_id_idx ON videos (user_id)`,
	`CREATE INDEX IF NOT EXISTS videos_created_at_idx ON videos (created_at DESC, id DESC)`,
}

// Migrate creates the users and videos tables when they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.SugaredLogger) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if logger != nil {
		logger.Debugw("postgres schema applied", "statements", len(schema))
	}
	return nil
}
