package authzsvc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/internal/svc/authzsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeAccountRepo struct {
	accountrepo.Repo

	accounts map[string]accountrepo.Account
}

func (f *fakeAccountRepo) GetByUsername(_ context.Context, in accountrepo.InputGetByUsername) (accountrepo.OutGetByUsername, error) {
	account, ok := f.accounts[in.Username]
	if !ok {
		return accountrepo.OutGetByUsername{}, accountrepo.ErrNotFound
	}

	return accountrepo.OutGetByUsername{Account: account}, nil
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newService(t *testing.T) *authzsvc.DefaultService {
	t.Helper()

	repo := &fakeAccountRepo{
		accounts: map[string]accountrepo.Account{
			"admin": {
				ID:       1,
				Username: "admin",
				Type:     "admin",
				Grants:   []string{"*:*:*"},
			},
			"operator": {
				ID:       2,
				Username: "operator",
				Type:     "service",
				Grants:   []string{"system:read:version", "system:*:operator"},
			},
		},
	}

	svc, err := authzsvc.NewDefaultService(authzsvc.DefaultServiceConfig{
		AccountRepo: repo,
		JWTSecret:   testSecret,
	})
	require.NoError(t, err)
	return svc
}

func TestNewDefaultService(t *testing.T) {
	t.Run("short secret rejected", func(t *testing.T) {
		_, err := authzsvc.NewDefaultService(authzsvc.DefaultServiceConfig{
			AccountRepo: &fakeAccountRepo{},
			JWTSecret:   "short",
		})
		assert.Error(t, err)
	})
}

func TestDefaultServiceAuthenticate(t *testing.T) {
	svc := newService(t)

	t.Run("no header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/system/versions", nil)

		_, err := svc.Authenticate(r)
		assert.ErrorIs(t, err, authzsvc.ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/system/versions", nil)
		r.Header.Set("Authorization", "Bearer not.a.jwt")

		_, err := svc.Authenticate(r)
		assert.ErrorIs(t, err, authzsvc.ErrUnauthenticated)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "admin", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("another-secret-another-secret-00"))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/system/versions", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		_, err = svc.Authenticate(r)
		assert.ErrorIs(t, err, authzsvc.ErrUnauthenticated)
	})

	t.Run("unknown subject", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/system/versions", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "ghost"))

		_, err := svc.Authenticate(r)
		assert.ErrorIs(t, err, authzsvc.ErrUnauthenticated)
	})

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/system/versions", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, "Operator"))

		id, err := svc.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "operator", id.Username)
		assert.Equal(t, "service", id.Type)
		assert.Contains(t, id.Grants, "system:read:version")
	})
}

func TestDefaultServiceAuthorize(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin := authzsvc.Identity{Username: "admin", Grants: []string{"*:*:*"}}
	operator := authzsvc.Identity{
		Username: "operator",
		Grants:   []string{"system:read:version", "system:*:operator"},
	}

	tests := []struct {
		name        string
		id          authzsvc.Identity
		permissions []string
		wantErr     error
	}{
		{name: "full wildcard matches anything", id: admin, permissions: []string{"system:update:schema"}},
		{name: "exact grant", id: operator, permissions: []string{"system:read:version"}},
		{name: "wildcard action with own target", id: operator, permissions: []string{"system:update:operator"}},
		{name: "case insensitive match", id: operator, permissions: []string{"System:Read:Version"}},
		{
			name:        "one of several missing",
			id:          operator,
			permissions: []string{"system:read:version", "system:update:schema"},
			wantErr:     authzsvc.ErrPermissionDenied,
		},
		{
			name:        "no grants at all",
			id:          authzsvc.Identity{Username: "nobody"},
			permissions: []string{"system:read:version"},
			wantErr:     authzsvc.ErrPermissionDenied,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.id, tc.permissions)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
