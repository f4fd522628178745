package authzsvc

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated means the request carries no usable credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPermissionDenied means the identity is valid but lacks a grant
	// covering at least one required permission.
	ErrPermissionDenied = errors.New("permission denied")
)

// Identity is the resolved caller of an admin request.
type Identity struct {
	Username string
	Type     string
	Grants   []string
}

// Service authenticates admin requests and checks bound permission strings
// against the caller's grants.
type Service interface {
	Authenticate(r *http.Request) (Identity, error)
	Authorize(ctx context.Context, id Identity, permissions []string) error
}
