package pgsqlcatalog_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/assets"
	"github.com/prasastie/munggah/assets/upgrades/pgsqlcatalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsTableShape(t *testing.T) {
	steps := pgsqlcatalog.Steps(nil)
	require.NotEmpty(t, steps)

	// contiguous ascending ranges ending at the compiled-in db version
	for i, step := range steps {
		assert.NotEmpty(t, step.Funcs, "step %d has no functions", i)

		if i > 0 {
			assert.Equal(t, steps[i-1].To, step.From, "step %d range not contiguous", i)
		}
	}

	assert.Equal(t, "0.0.1", steps[0].From)
	assert.Equal(t, assets.DBVersion, steps[len(steps)-1].To)
}

func TestStepsExecute(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")
	steps := pgsqlcatalog.Steps(db)

	// second step carries a DDL then a backfill, both must run in order
	mock.ExpectExec(`ALTER TABLE accounts ADD COLUMN IF NOT EXISTS grants`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE accounts SET grants`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	for _, fn := range steps[1].Funcs {
		require.NoError(t, fn.Run(ctx))
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
