package dblock_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/pkg/dblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return sqlx.NewDb(db, "postgres"), mock
}

func TestNewPostgres(t *testing.T) {
	t.Run("missing connection", func(t *testing.T) {
		_, err := dblock.NewPostgres(dblock.PostgresConfig{})
		assert.Error(t, err)
	})

	t.Run("ok", func(t *testing.T) {
		db, _ := newMockDB(t)
		locker, err := dblock.NewPostgres(dblock.PostgresConfig{Connection: db})
		require.NoError(t, err)
		assert.NotNil(t, locker)
	})
}

func TestPostgresAcquireRelease(t *testing.T) {
	ctx := context.Background()

	db, mock := newMockDB(t)
	locker, err := dblock.NewPostgres(dblock.PostgresConfig{Connection: db})
	require.NoError(t, err)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WithArgs(int64(1), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WithArgs(int64(1), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	release, err := locker.Acquire(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, release)

	err = release(ctx)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAcquireError(t *testing.T) {
	ctx := context.Background()

	db, mock := newMockDB(t)
	locker, err := dblock.NewPostgres(dblock.PostgresConfig{Connection: db})
	require.NoError(t, err)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WithArgs(int64(1), int64(7)).
		WillReturnError(assert.AnError)

	release, err := locker.Acquire(ctx, 1, 7)
	assert.Error(t, err)
	assert.Nil(t, release)
}
