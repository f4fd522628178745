package pgsql_catalog

import (
	"context"
	"fmt"

	"github.com/prasastie/munggah/pkg/tracer"
)

// CreateAccountsTable1753900042 is struct to define a migration with ID 1753900042_create_accounts_table
type CreateAccountsTable1753900042 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateAccountsTable1753900042) ID(ctx context.Context) string {
	_, span := tracer.StartSpan(ctx, "CreateAccountsTable1753900042.ID")
	defer span.End()

	return fmt.Sprintf("%d_%s.sql", 1753900042, "create_accounts_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateAccountsTable1753900042) SequenceNumber(ctx context.Context) int {
	_, span := tracer.StartSpan(ctx, "CreateAccountsTable1753900042.SequenceNumber")
	defer span.End()

	return 1753900042
}

// Up return sql migration for sync database.
// The table is created at its final shape, older databases reach the same
// shape through the upgrade step table instead.
func (m CreateAccountsTable1753900042) Up(ctx context.Context) (sql string, err error) {
	_, span := tracer.StartSpan(ctx, "CreateAccountsTable1753900042.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS accounts (
	id BIGINT NOT NULL PRIMARY KEY,
	username VARCHAR NOT NULL,
	type VARCHAR(32) NOT NULL DEFAULT 'user',
	grants TEXT[] NOT NULL DEFAULT '{}',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	deleted_at BIGINT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_uniq ON accounts (LOWER(username), deleted_at);
`

	return
}

// Down return sql migration for rollback database
func (m CreateAccountsTable1753900042) Down(ctx context.Context) (sql string, err error) {
	_, span := tracer.StartSpan(ctx, "CreateAccountsTable1753900042.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS accounts;`
	return
}
