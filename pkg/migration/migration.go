package migration

import "context"

// Runner applies or rolls back a set of schema migrations.
// Up means running all queries to latest version,
// Down means rollback using the Down queries.
type Runner interface {
	Up() error
	Down() error
}

// Unit is a single migration to run.
type Unit interface {
	// ID return unique identifier for each migration. The prefix must be number.
	ID(ctx context.Context) string

	// SequenceNumber must be unique, this useful to see the current status of the migration.
	SequenceNumber(ctx context.Context) int

	// Up return sql migration for sync database
	Up(ctx context.Context) (sql string, err error)

	// Down return sql migration for rollback database
	Down(ctx context.Context) (sql string, err error)
}
