package versionrepo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func versionColumns() []string {
	return []string{"service_name", "service_version", "db_version", "metadata", "created_at", "updated_at"}
}

func TestPostgres(t *testing.T) {
	t.Run("missing connection", func(t *testing.T) {
		_, err := Postgres(RepoPostgresConfig{})
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		assert.NoError(t, err)
		assert.NotNil(t, repo)
	})
}

func TestRepoPostgresGetByServiceName(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT \* FROM service_versions`).
			WithArgs("munggah").
			WillReturnRows(sqlmock.NewRows(versionColumns()).
				AddRow("munggah", "1.0.0", "0.0.6", []byte(`{}`), int64(1), int64(1)))

		out, err := repo.GetByServiceName(ctx, InputGetByServiceName{ServiceName: "munggah"})
		require.NoError(t, err)
		assert.True(t, out.Found)
		assert.Equal(t, "1.0.0", out.Version.ServiceVersion)
		assert.Equal(t, "0.0.6", out.Version.DBVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no record", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT \* FROM service_versions`).
			WithArgs("munggah").
			WillReturnRows(sqlmock.NewRows(versionColumns()))

		out, err := repo.GetByServiceName(ctx, InputGetByServiceName{ServiceName: "munggah"})
		require.NoError(t, err)
		assert.False(t, out.Found)
	})

	t.Run("table not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT \* FROM service_versions`).
			WithArgs("munggah").
			WillReturnError(&pq.Error{Code: "42P01", Message: `relation "service_versions" does not exist`})

		_, err = repo.GetByServiceName(ctx, InputGetByServiceName{ServiceName: "munggah"})
		assert.ErrorIs(t, err, ErrTableNotFound)
	})

	t.Run("validation error", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		_, err = repo.GetByServiceName(ctx, InputGetByServiceName{ServiceName: "MUNGGAH"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRepoPostgresUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		mock.ExpectQuery(`INSERT INTO service_versions`).
			WithArgs("munggah", "1.0.0", "0.0.6", []byte(`{}`), int64(10), int64(10)).
			WillReturnRows(sqlmock.NewRows(versionColumns()).
				AddRow("munggah", "1.0.0", "0.0.6", []byte(`{}`), int64(10), int64(10)))

		out, err := repo.Upsert(ctx, InputUpsert{
			Version: ServiceVersion{
				ServiceName:    "Munggah", // normalized to lowercase before write
				ServiceVersion: "1.0.0",
				DBVersion:      "0.0.6",
				CreatedAt:      10,
				UpdatedAt:      10,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "munggah", out.Version.ServiceName)
		assert.Equal(t, "0.0.6", out.Version.DBVersion)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validation error", func(t *testing.T) {
		db, _ := newMockDB(t)
		repo, err := Postgres(RepoPostgresConfig{Connection: db})
		require.NoError(t, err)

		_, err = repo.Upsert(ctx, InputUpsert{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}
