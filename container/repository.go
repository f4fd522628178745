package container

import (
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/internal/svc/versionrepo"
	"github.com/prasastie/munggah/pkg/dblock"
	"github.com/prasastie/munggah/pkg/multidb"
	"github.com/prasastie/munggah/pkg/validator"
	"go.uber.org/multierr"
)

// Repositories is an abstraction layer to list down all repositories.
// This only will connect and save the repository.
// To use this, you must select the db label based on config file
type Repositories interface {
	io.Closer

	SqlxConn(dbLabel string) (*sqlx.DB, error)
	VersionRepo(dbLabel string) (versionrepo.Repo, error)
	AccountRepo(dbLabel string) (accountrepo.Repo, error)
	Locker(dbLabel string) (dblock.Locker, error)
}

// RepositoryImpl the real implementation of Repositories
type RepositoryImpl struct {
	dbResourceMap ConfigDatabaseResources `validate:"required,structonly"`
	dbSqlConn     multidb.MultiDB         `validate:"required"` // all database connection
}

// Ensure that RepositoryImpl implements Repositories
var _ Repositories = (*RepositoryImpl)(nil)

// SetupRepositories return pointer because it heavily used.
// This will initialize all required dependencies to run.
// This will return RepositoryImpl instead Repositories,
// the reason is when SetupRepositories called it must be close in deferred mode, any passed value using interface
// won't let user Close any dependencies during run-time.
func SetupRepositories(conf ConfigDatabaseResources) (*RepositoryImpl, error) {
	sqlDbConfig := multidb.DatabaseResources{}
	for name, conn := range conf {
		sqlDbConfig[name] = multidb.DatabaseResource{
			Disable:  conn.Disable,
			Driver:   multidb.Driver(conn.Driver),
			Postgres: multidb.GoSqlDb(conn.Postgres),
		}
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{Config: sqlDbConfig})
	if err != nil {
		return nil, err
	}

	dep := &RepositoryImpl{
		dbResourceMap: conf,
		dbSqlConn:     dbSqlConn,
	}

	err = validator.Validate(dep)
	if err != nil {
		return nil, err
	}

	return dep, nil
}

// SqlxConn return the raw connection for a label, used by upgrade step
// functions and the bootstrap migration.
func (r *RepositoryImpl) SqlxConn(dbLabel string) (*sqlx.DB, error) {
	return r.getPostgres(dbLabel)
}

// VersionRepo return versionrepo.Repo and return error when connection is closed or nil.
// This should never have caused panic.
func (r *RepositoryImpl) VersionRepo(dbLabel string) (repo versionrepo.Repo, err error) {
	sqlConn, err := r.getPostgres(dbLabel)
	if err != nil {
		return
	}

	repo, err = versionrepo.Postgres(versionrepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
	return
}

func (r *RepositoryImpl) AccountRepo(dbLabel string) (repo accountrepo.Repo, err error) {
	sqlConn, err := r.getPostgres(dbLabel)
	if err != nil {
		return
	}

	repo, err = accountrepo.Postgres(accountrepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
	return
}

// Locker return the advisory lock provider bound to the same database the
// upgrade runs against.
func (r *RepositoryImpl) Locker(dbLabel string) (locker dblock.Locker, err error) {
	sqlConn, err := r.getPostgres(dbLabel)
	if err != nil {
		return
	}

	locker, err = dblock.NewPostgres(dblock.PostgresConfig{
		Connection: sqlConn,
	})
	return
}

func (r *RepositoryImpl) getPostgres(dbLabel string) (sqlConn *sqlx.DB, err error) {
	repoConnInfo, ok := r.dbResourceMap[dbLabel]
	if !ok {
		err = fmt.Errorf("unknown database key %s", dbLabel)
		return
	}

	sqlDriver := repoConnInfo.Driver
	switch sqlDriver {
	case "postgres":
		sqlConn, err = r.dbSqlConn.GetSqlx(multidb.Postgres, dbLabel)
		return

	default:
		err = fmt.Errorf("not supported db driver '%s' on label '%s'", sqlDriver, dbLabel)
		return
	}
}

// Close will close all dependencies.
func (r *RepositoryImpl) Close() error {
	if r == nil {
		return nil
	}

	if r.dbSqlConn == nil {
		return nil
	}

	var err error
	if _err := r.dbSqlConn.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close db error: %w", _err))
	}

	return err
}
