package upgrade

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// VersionPair is the tuple of service version and database schema version
// tracked together. CodeVersions is the pair baked into the running binary,
// RunningVersions is the pair last persisted to the version record.
type VersionPair struct {
	ServiceVersion string `json:"service_version"`
	DBVersion      string `json:"db_version"`
}

func parseVersion(v string) (*semver.Version, error) {
	parsed, err := semver.StrictNewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("cannot parse version '%s': %w", v, err)
	}

	return parsed, nil
}
