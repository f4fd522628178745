package systemsvc

import (
	"context"

	"github.com/prasastie/munggah/internal/upgrade"
)

// Service exposes system level operations: version inspection and the
// schema upgrade trigger.
type Service interface {
	Versions(ctx context.Context) (out OutVersions, err error)
	Upgrade(ctx context.Context) (out OutUpgrade, err error)
}

type OutVersions struct {
	Code    upgrade.VersionPair
	Running upgrade.VersionPair
	Found   bool
}

type OutUpgrade struct {
	Result upgrade.Result
}
