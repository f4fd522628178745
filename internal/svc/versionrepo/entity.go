package versionrepo

// ServiceVersion is one row of the service_versions table. Each service
// keeps exactly one active row describing the code and schema version it
// last finished an upgrade at.
// Json tag is used for caching.
type ServiceVersion struct {
	ServiceName    string `json:"service_name" db:"service_name" validate:"required"` // unique
	ServiceVersion string `json:"service_version" db:"service_version" validate:"required"`
	DBVersion      string `json:"db_version" db:"db_version" validate:"required"`

	// Metadata is a free-form JSON object (hostname, upgrade trigger, etc).
	Metadata []byte `json:"metadata" db:"metadata" validate:"-"`

	// Timestamp using integer as unix microsecond in UTC
	CreatedAt int64 `json:"created_at" db:"created_at" validate:"required"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at" validate:"required"`
}
