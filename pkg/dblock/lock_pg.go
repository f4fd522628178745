package dblock

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/pkg/validator"
)

const (
	sqlAdvisoryLock   = `SELECT pg_advisory_lock($1, $2);`
	sqlAdvisoryUnlock = `SELECT pg_advisory_unlock($1, $2);`
)

type PostgresConfig struct {
	Connection *sqlx.DB `validate:"required"`
}

// Postgres implements Locker using PostgreSQL session-level advisory locks.
// The lock is taken on a dedicated connection pinned from the pool, because
// pg_advisory_lock is owned by the session: releasing from another pooled
// connection would silently be a no-op.
type Postgres struct {
	Config PostgresConfig
}

var _ Locker = (*Postgres)(nil)

func NewPostgres(conf PostgresConfig) (*Postgres, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, fmt.Errorf("dblock postgres config error: %w", err)
	}

	return &Postgres{Config: conf}, nil
}

func (p *Postgres) Acquire(ctx context.Context, namespace, id int64) (ReleaseFunc, error) {
	conn, err := p.Config.Connection.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot pin connection for advisory lock (%d, %d): %w", namespace, id, err)
	}

	_, err = conn.ExecContext(ctx, sqlAdvisoryLock, namespace, id)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pg_advisory_lock(%d, %d) error: %w", namespace, id, err)
	}

	release := func(rctx context.Context) error {
		var unlocked bool
		row := conn.QueryRowContext(rctx, sqlAdvisoryUnlock, namespace, id)
		// unlock result is best effort, closing the session also drops the lock
		_ = row.Scan(&unlocked)

		return conn.Close()
	}

	return release, nil
}
