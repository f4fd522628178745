package versionrepo

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")

	// ErrTableNotFound means the service_versions table does not exist yet,
	// i.e. the database was never initialized for this service.
	ErrTableNotFound = errors.New("service_versions table not found")
)

// Repo is the service version record repository
type Repo interface {
	GetByServiceName(ctx context.Context, in InputGetByServiceName) (out OutGetByServiceName, err error)
	Upsert(ctx context.Context, in InputUpsert) (out OutUpsert, err error)
}

type InputGetByServiceName struct {
	ServiceName string `validate:"required,lowercase"`
}

type OutGetByServiceName struct {
	Found   bool
	Version ServiceVersion
}

type InputUpsert struct {
	Version ServiceVersion `validate:"required"`
}

type OutUpsert struct {
	Version ServiceVersion
}
