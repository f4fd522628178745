package dblock

import (
	"context"
)

// ReleaseFunc releases a previously acquired lock.
// Must be called on every exit path, typically in defer.
type ReleaseFunc func(ctx context.Context) error

// Locker is a cooperative, database-scoped mutual-exclusion primitive keyed by
// application-chosen identifiers, not tied to any specific row or table.
// Acquire blocks until the lock is granted or ctx is done, there is no retry
// nor queueing on the caller side. Callers that need a bounded wait must pass
// a context with deadline.
type Locker interface {
	Acquire(ctx context.Context, namespace, id int64) (ReleaseFunc, error)
}
