package multidb

import (
	"io"

	"github.com/jmoiron/sqlx"
)

// MultiDB holds every configured database connection keyed by label.
// Repositories pick their connection by label from the config file.
type MultiDB interface {
	GetSqlx(driver Driver, key string) (*sqlx.DB, error)
	io.Closer
}
