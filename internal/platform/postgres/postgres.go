// Package postgres opens the identity database through the pgx stdlib driver
// and applies the schema the identity store expects.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"idsim/internal/platform/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS subjects (
	namespace     TEXT NOT NULL,
	identifier    TEXT NOT NULL,
	group_code    TEXT,
	accessor_ids  TEXT[] NOT NULL DEFAULT '{}',
	ial           DOUBLE PRECISION NOT NULL,
	aal           DOUBLE PRECISION NOT NULL,
	response      TEXT NOT NULL,
	delay_seconds INTEGER NOT NULL DEFAULT 0,
	mode          SMALLINT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, identifier)
);
CREATE INDEX IF NOT EXISTS subjects_group_code_idx ON subjects (group_code);

CREATE TABLE IF NOT EXISTS accessors (
	accessor_id TEXT PRIMARY KEY,
	group_code  TEXT,
	public_key  TEXT NOT NULL,
	private_key TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
`

// Open connects, pings and migrates.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the identity tables if missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate identity schema: %w", err)
	}
	return nil
}
