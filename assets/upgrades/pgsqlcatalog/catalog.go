// Package pgsqlcatalog declares the ordered upgrade step table for the
// catalog schema. Steps are append-only: released ranges are never edited,
// a new schema change gets a new (from, to) range at the end.
package pgsqlcatalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/internal/upgrade"
)

// Steps returns the full step table in ascending range order. Every step
// function is idempotent so a re-run after a crash is safe.
func Steps(db *sqlx.DB) []upgrade.Step {
	return []upgrade.Step{
		{
			From: "0.0.1",
			To:   "0.0.2",
			Funcs: []upgrade.StepFunc{
				{Name: "account_add_type_column", Run: execAll(db,
					`ALTER TABLE accounts ADD COLUMN IF NOT EXISTS type VARCHAR(32) NOT NULL DEFAULT 'user';`,
				)},
			},
		},
		{
			From: "0.0.2",
			To:   "0.0.3",
			Funcs: []upgrade.StepFunc{
				{Name: "account_add_grants_column", Run: execAll(db,
					`ALTER TABLE accounts ADD COLUMN IF NOT EXISTS grants TEXT[] NOT NULL DEFAULT '{}';`,
				)},
				{Name: "account_backfill_admin_grants", Run: execAll(db,
					`UPDATE accounts SET grants = '{"*:*:*"}' WHERE type = 'admin' AND grants = '{}';`,
				)},
			},
		},
		{
			From: "0.0.3",
			To:   "0.0.4",
			Funcs: []upgrade.StepFunc{
				{Name: "version_add_metadata_column", Run: execAll(db,
					`ALTER TABLE service_versions ADD COLUMN IF NOT EXISTS metadata JSONB NOT NULL DEFAULT '{}';`,
				)},
			},
		},
		{
			From: "0.0.4",
			To:   "0.0.5",
			Funcs: []upgrade.StepFunc{
				{Name: "account_lowercase_usernames", Run: execAll(db,
					`UPDATE accounts SET username = LOWER(username) WHERE username <> LOWER(username);`,
				)},
				{Name: "account_unique_username_index", Run: execAll(db,
					`CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_uniq ON accounts (LOWER(username));`,
				)},
			},
		},
		{
			From: "0.0.5",
			To:   "0.0.6",
			Funcs: []upgrade.StepFunc{
				{Name: "account_add_deleted_at_column", Run: execAll(db,
					`ALTER TABLE accounts ADD COLUMN IF NOT EXISTS deleted_at BIGINT NOT NULL DEFAULT 0;`,
				)},
				{Name: "account_rebuild_username_index", Run: execAll(db,
					`DROP INDEX IF EXISTS accounts_username_uniq;`,
					`CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_uniq ON accounts (LOWER(username), deleted_at);`,
				)},
			},
		},
	}
}

func execAll(db *sqlx.DB, statements ...string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		for _, statement := range statements {
			if _, err := db.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("statement failed: %w", err)
			}
		}

		return nil
	}
}
