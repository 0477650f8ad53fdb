package database

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/001_init_schema.sql
var migrationSQL string

// Columns added after the initial schema shipped. Applied additively on
// every startup so older databases pick them up without losing rows.
var additiveColumns = []string{
	`ALTER TABLE positions ADD COLUMN IF NOT EXISTS current_price NUMERIC(18,4) NOT NULL DEFAULT 0`,
	`ALTER TABLE positions ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ`,
}

// RunMigrations creates the schema on first access and backfills any columns
// introduced by later versions. It is safe to run on every boot.
func RunMigrations(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("Running database migrations...")

	if _, err := db.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run init schema: %w", err)
	}

	for _, stmt := range additiveColumns {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply additive migration: %w", err)
		}
	}

	log.Println("[OK] Database schema is up to date")
	return nil
}
