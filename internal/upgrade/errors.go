package upgrade

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the binary does not declare a target db version.
	ErrConfiguration = errors.New("code db version is not declared")

	// ErrStoreUninitialized means the version table itself is missing,
	// which signals a never-initialized store rather than a failure.
	ErrStoreUninitialized = errors.New("version table not found, store is not initialized")

	// ErrDowngrade means the running db version is newer than the code db version.
	ErrDowngrade = errors.New("db downgrade not supported")

	// ErrTargetUnreachable means the step table walk ended below the target
	// version. The version record is left untouched so the gap is visible.
	ErrTargetUnreachable = errors.New("step table cannot reach target db version")
)

// StepError wraps a migration function failure with the step context.
// The cause is kept unwrappable so callers can still inspect it.
type StepError struct {
	From string
	To   string
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("upgrade function '%s' (%s to %s) failed: %s", e.Name, e.From, e.To, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
