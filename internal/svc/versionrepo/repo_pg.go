package versionrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	// pgUndefinedTable is the Postgres error code for "relation does not exist"
	pgUndefinedTable = "42P01"

	sqlGetVersionByServiceName = `SELECT * FROM service_versions WHERE LOWER(service_name) = $1 LIMIT 1;`

	sqlUpsertVersion = `
		INSERT INTO service_versions (service_name, service_version, db_version, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (service_name)
		DO UPDATE SET
		    service_version = EXCLUDED.service_version,
		    db_version = EXCLUDED.db_version,
		    metadata = EXCLUDED.metadata,
		    updated_at = EXCLUDED.updated_at
		RETURNING *;
`
)

type RepoPostgresConfig struct {
	Connection sqlx.QueryerContext `validate:"required"`
}

type RepoPostgres struct {
	Config RepoPostgresConfig
}

var _ Repo = (*RepoPostgres)(nil)

// Postgres return repo interface which implements using PgSQL
func Postgres(conf RepoPostgresConfig) (repo *RepoPostgres, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	repo = &RepoPostgres{
		Config: conf,
	}
	return
}

func (p *RepoPostgres) GetByServiceName(ctx context.Context, in InputGetByServiceName) (out OutGetByServiceName, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "versionrepo.GetByServiceName")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	version := ServiceVersion{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &version, sqlGetVersionByServiceName, in.ServiceName)
	if errors.Is(err, sql.ErrNoRows) {
		out = OutGetByServiceName{
			Found: false,
		}

		err = nil // discard error
		return
	}

	if err != nil {
		err = translatePgErr(err)
		return
	}

	out = OutGetByServiceName{
		Found:   true,
		Version: version,
	}
	return
}

func (p *RepoPostgres) Upsert(ctx context.Context, in InputUpsert) (out OutUpsert, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "versionrepo.Upsert")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	version := in.Version
	version.ServiceName = strings.TrimSpace(strings.ToLower(version.ServiceName))

	metadata := version.Metadata
	if len(metadata) == 0 {
		metadata = []byte(`{}`)
	}

	upsertedVersion := ServiceVersion{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &upsertedVersion, sqlUpsertVersion,
		version.ServiceName, version.ServiceVersion, version.DBVersion, metadata,
		version.CreatedAt, version.UpdatedAt,
	)

	if err != nil {
		err = translatePgErr(err)
		return
	}

	out = OutUpsert{
		Version: upsertedVersion,
	}
	return
}

// translatePgErr maps a missing service_versions relation to ErrTableNotFound
// so callers can treat an uninitialized database as a distinct state.
func translatePgErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUndefinedTable {
		return fmt.Errorf("%w: %s", ErrTableNotFound, err)
	}

	return err
}
