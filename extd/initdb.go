package extd

import (
	"context"

	"github.com/prasastie/munggah/assets/migrations/pgsql_catalog"
	"github.com/prasastie/munggah/container"
	"github.com/prasastie/munggah/pkg/migration"
	"github.com/yusufsyaifudin/ylog"
)

// migrationTable holds applied bootstrap migration IDs, distinct from the
// service_versions record the upgrade coordinator owns.
const migrationTable = "schema_migrations"

// RunInitDB bootstrap the base schema (service_versions, accounts) on an
// empty database. Safe to re-run, applied migrations are skipped.
func RunInitDB(ctx context.Context, cfg container.Config) (err error) {

	if ctx == nil {
		ctx = context.TODO()
	}

	ctx = setupLog(ctx)

	ylog.Info(ctx, "container preparation: starting")
	var repositories container.Repositories
	repositories, err = container.SetupRepositories(cfg.DatabaseResources)
	defer func() {
		if repositories == nil {
			return
		}

		if _err := repositories.Close(); _err != nil {
			ylog.Error(ctx, "closing container: failed", ylog.KV("error", _err))
		}
	}()

	if err != nil {
		ylog.Error(ctx, "container preparation: failed", ylog.KV("error", err))
		return
	}

	sqlConn, err := repositories.SqlxConn(cfg.Services.Upgrade.DBLabel)
	if err != nil {
		ylog.Error(ctx, "initdb: cannot get sql connection", ylog.KV("error", err))
		return
	}

	runner, err := migration.NewSQLRunner(ctx, migration.SQLRunnerConfig{
		Dialect:        "postgres",
		DB:             sqlConn.DB,
		MigrationTable: migrationTable,
		Migrations: []migration.Unit{
			pgsql_catalog.CreateServiceVersionsTable1753900017{},
			pgsql_catalog.CreateAccountsTable1753900042{},
		},
	})
	if err != nil {
		ylog.Error(ctx, "initdb: migration runner preparation failed", ylog.KV("error", err))
		return
	}

	err = runner.Up()
	if err != nil {
		ylog.Error(ctx, "initdb: migration failed", ylog.KV("error", err))
		return
	}

	ylog.Info(ctx, "initdb: done")
	return
}
