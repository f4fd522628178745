package accountrepo

import "github.com/lib/pq"

// Account is an identity allowed to call the admin API, together with the
// grant strings the authorization layer matches permissions against.
// Json tag is used for caching.
type Account struct {
	ID       int64  `json:"id" db:"id" validate:"required"`               // primary key
	Username string `json:"username" db:"username" validate:"required"`   // unique
	Type     string `json:"type" db:"type" validate:"required,oneof=admin service user"`

	// Grants hold permission strings in "domain:action:target" form,
	// each part may be the wildcard "*".
	Grants pq.StringArray `json:"grants" db:"grants" validate:"-"`

	// Timestamp using integer as unix microsecond in UTC
	CreatedAt int64 `json:"created_at" db:"created_at" validate:"required"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at" validate:"required"`
	DeletedAt int64 `json:"deleted_at" db:"deleted_at" validate:"-"`
}
