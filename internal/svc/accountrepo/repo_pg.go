package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	sqlCreateAccount = `
		INSERT INTO accounts (id, username, type, grants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *;
`

	sqlGetAccountByUsername = `SELECT * FROM accounts WHERE LOWER(username) = $1 AND deleted_at = 0 LIMIT 1;`

	sqlListAccountsCount        = `SELECT COUNT(*) as total FROM accounts WHERE deleted_at = 0;`
	sqlListAccountsWithoutRange = `SELECT * FROM accounts WHERE deleted_at = 0 ORDER BY id ASC LIMIT $1;`
	sqlListAccountsAfterID      = `SELECT * FROM accounts WHERE id > $1 AND deleted_at = 0 ORDER BY id ASC LIMIT $2;`

	sqlSoftDeleteAccount = `UPDATE accounts SET deleted_at = $1 WHERE id = (SELECT id FROM accounts WHERE LOWER(accounts.username) = $2 AND accounts.deleted_at = 0 LIMIT 1) RETURNING *;`
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

func (p *RepoPostgres) Create(ctx context.Context, in InputCreate) (out OutCreate, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	account := in.Account
	account.Username = strings.TrimSpace(strings.ToLower(account.Username))

	insertedAccount := Account{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &insertedAccount, sqlCreateAccount,
		account.ID, account.Username, account.Type, account.Grants,
		account.CreatedAt, account.UpdatedAt,
	)

	if err != nil {
		return
	}

	out = OutCreate{
		Account: insertedAccount,
	}
	return
}

func (p *RepoPostgres) GetByUsername(ctx context.Context, in InputGetByUsername) (out OutGetByUsername, err error) {
	var span trace.Span
	ctx, span = tracer.StartSpan(ctx, "accountrepo.GetByUsername")
	defer span.End()

	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	accountData := Account{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &accountData, sqlGetAccountByUsername, in.Username)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w: username '%s'", ErrNotFound, in.Username)
		return
	}

	if err != nil {
		return
	}

	out = OutGetByUsername{
		Account: accountData,
	}
	return
}

func (p *RepoPostgres) List(ctx context.Context, in InputList) (out OutList, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	count := struct {
		Total int64 `db:"total"`
	}{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &count, sqlListAccountsCount)
	if err != nil {
		err = fmt.Errorf("cannot count list of accounts: %w", err)
		return
	}

	if count.Total <= 0 {
		return
	}

	accountData := make([]Account, 0)
	if in.AfterID == 0 {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &accountData, sqlListAccountsWithoutRange, in.Limit)
	} else {
		err = sqlx.SelectContext(ctx, p.Config.Connection, &accountData, sqlListAccountsAfterID, in.AfterID, in.Limit)
	}

	if err != nil {
		err = fmt.Errorf("cannot get list of accounts: %w", err)
		return
	}

	out = OutList{
		Total:    count.Total,
		Accounts: accountData,
	}
	return
}

func (p *RepoPostgres) DelByUsername(ctx context.Context, in InputDelByUsername) (out OutDelByUsername, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	accountData := Account{}
	err = sqlx.GetContext(ctx, p.Config.Connection, &accountData, sqlSoftDeleteAccount, in.DeletedAt, in.Username)
	if errors.Is(err, sql.ErrNoRows) {
		out = OutDelByUsername{
			Success: false,
		}

		err = nil // discard error
		return
	}

	if err != nil {
		return
	}

	out = OutDelByUsername{
		Success: accountData.Username == in.Username && accountData.DeletedAt == in.DeletedAt,
	}
	return
}
