package versionrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/segmentio/encoding/json"
)

type SourceConfig struct {
	Repo Repo `validate:"required"`

	// Versions compiled into the running binary, see assets package.
	ServiceName    string `validate:"required"`
	ServiceVersion string `validate:"required"`
	DBVersion      string `validate:"required"`
}

// Source adapts the version record repository to the version pair view the
// upgrade coordinator consumes, and writes the record back once a run
// completes.
type Source struct {
	Config SourceConfig
}

var _ upgrade.VersionSource = (*Source)(nil)
var _ upgrade.VersionStore = (*Source)(nil)

func NewSource(conf SourceConfig) (src *Source, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	src = &Source{
		Config: conf,
	}
	return
}

func (s *Source) CodeVersions(_ context.Context) (upgrade.VersionPair, error) {
	return upgrade.VersionPair{
		ServiceVersion: s.Config.ServiceVersion,
		DBVersion:      s.Config.DBVersion,
	}, nil
}

func (s *Source) RunningVersions(ctx context.Context) (pair upgrade.VersionPair, found bool, err error) {
	out, err := s.Config.Repo.GetByServiceName(ctx, InputGetByServiceName{
		ServiceName: s.Config.ServiceName,
	})

	if errors.Is(err, ErrTableNotFound) {
		err = fmt.Errorf("%w: %s", upgrade.ErrStoreUninitialized, err)
		return
	}

	if err != nil {
		err = fmt.Errorf("cannot read service version record: %w", err)
		return
	}

	if !out.Found {
		return
	}

	pair = upgrade.VersionPair{
		ServiceVersion: out.Version.ServiceVersion,
		DBVersion:      out.Version.DBVersion,
	}
	found = true
	return
}

func (s *Source) Record(ctx context.Context, in upgrade.RecordInput) error {
	metadata := []byte(`{}`)
	if len(in.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(in.Metadata)
		if err != nil {
			return fmt.Errorf("cannot marshal version record metadata: %w", err)
		}
	}

	now := time.Now().UTC().UnixMicro()
	_, err := s.Config.Repo.Upsert(ctx, InputUpsert{
		Version: ServiceVersion{
			ServiceName:    s.Config.ServiceName,
			ServiceVersion: in.ServiceVersion,
			DBVersion:      in.DBVersion,
			Metadata:       metadata,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	})
	if err != nil {
		return fmt.Errorf("cannot persist service version record: %w", err)
	}

	return nil
}
