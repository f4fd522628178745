package pgsql_catalog

import (
	"context"
	"fmt"

	"github.com/prasastie/munggah/pkg/tracer"
)

// CreateServiceVersionsTable1753900017 is struct to define a migration with ID 1753900017_create_service_versions_table
type CreateServiceVersionsTable1753900017 struct{}

// ID return unique identifier for each migration. The prefix is unix time when this migration is created.
func (m CreateServiceVersionsTable1753900017) ID(ctx context.Context) string {
	_, span := tracer.StartSpan(ctx, "CreateServiceVersionsTable1753900017.ID")
	defer span.End()

	return fmt.Sprintf("%d_%s.sql", 1753900017, "create_service_versions_table")
}

// SequenceNumber return current time when the migration is created,
// this useful to see the current status of the migration.
func (m CreateServiceVersionsTable1753900017) SequenceNumber(ctx context.Context) int {
	_, span := tracer.StartSpan(ctx, "CreateServiceVersionsTable1753900017.SequenceNumber")
	defer span.End()

	return 1753900017
}

// Up return sql migration for sync database
func (m CreateServiceVersionsTable1753900017) Up(ctx context.Context) (sql string, err error) {
	_, span := tracer.StartSpan(ctx, "CreateServiceVersionsTable1753900017.Up")
	defer span.End()

	sql = `
CREATE TABLE IF NOT EXISTS service_versions (
	service_name VARCHAR NOT NULL PRIMARY KEY,
	service_version VARCHAR NOT NULL,
	db_version VARCHAR NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
`

	return
}

// Down return sql migration for rollback database
func (m CreateServiceVersionsTable1753900017) Down(ctx context.Context) (sql string, err error) {
	_, span := tracer.StartSpan(ctx, "CreateServiceVersionsTable1753900017.Down")
	defer span.End()

	sql = `DROP TABLE IF EXISTS service_versions;`
	return
}
