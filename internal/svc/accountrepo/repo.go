package accountrepo

import (
	"context"
	"errors"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("account not found")
)

// Repo is Account repository service
type Repo interface {
	Create(ctx context.Context, in InputCreate) (out OutCreate, err error)
	GetByUsername(ctx context.Context, in InputGetByUsername) (out OutGetByUsername, err error)
	List(ctx context.Context, in InputList) (out OutList, err error)
	DelByUsername(ctx context.Context, in InputDelByUsername) (out OutDelByUsername, err error)
}

type InputCreate struct {
	Account Account `validate:"required"`
}

type OutCreate struct {
	Account Account
}

type InputGetByUsername struct {
	Username string `validate:"required,lowercase"`
}

type OutGetByUsername struct {
	Account Account
}

type InputList struct {
	Limit   int64 `validate:"required"`
	AfterID int64 `validate:"min=0"`
}

type OutList struct {
	Total    int64
	Accounts []Account
}

type InputDelByUsername struct {
	Username  string `validate:"required,lowercase"`
	DeletedAt int64  `validate:"required"`
}

type OutDelByUsername struct {
	Success bool
}
