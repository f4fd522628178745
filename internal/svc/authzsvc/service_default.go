package authzsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.opentelemetry.io/otel/trace"
)

const bearerPrefix = "Bearer "

type DefaultServiceConfig struct {
	AccountRepo accountrepo.Repo `validate:"required"`
	JWTSecret   string           `validate:"required,min=16"`
}

// DefaultService resolves HS256 bearer tokens to accounts and matches
// required permissions against the account's grant strings.
type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func NewDefaultService(conf DefaultServiceConfig) (svc *DefaultService, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	svc = &DefaultService{
		Config: conf,
	}
	return
}

func (d *DefaultService) Authenticate(r *http.Request) (id Identity, err error) {
	ctx := r.Context()

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		err = fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
		return
	}

	rawToken := strings.TrimPrefix(header, bearerPrefix)
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}

		return []byte(d.Config.JWTSecret), nil
	})
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrUnauthenticated, err)
		return
	}

	username, err := token.Claims.GetSubject()
	if err != nil || username == "" {
		err = fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
		return
	}

	username = strings.TrimSpace(strings.ToLower(username))
	out, err := d.Config.AccountRepo.GetByUsername(ctx, accountrepo.InputGetByUsername{
		Username: username,
	})
	if err != nil {
		ylog.Debug(ctx, "token subject has no matching account", ylog.KV("username", username), ylog.KV("error", err))
		err = fmt.Errorf("%w: unknown account '%s'", ErrUnauthenticated, username)
		return
	}

	id = Identity{
		Username: out.Account.Username,
		Type:     out.Account.Type,
		Grants:   out.Account.Grants,
	}
	return
}

func (d *DefaultService) Authorize(ctx context.Context, id Identity, permissions []string) (err error) {
	var span trace.Span
	_, span = tracer.StartSpan(ctx, "authzsvc.Authorize")
	defer span.End()

	for _, required := range permissions {
		if !anyGrantMatches(id.Grants, required) {
			err = fmt.Errorf("%w: account '%s' lacks '%s'", ErrPermissionDenied, id.Username, required)
			return
		}
	}

	return nil
}

func anyGrantMatches(grants []string, required string) bool {
	for _, grant := range grants {
		if grantMatches(grant, required) {
			return true
		}
	}

	return false
}

// grantMatches compares domain:action:target triples part by part,
// a "*" grant part matches any required part.
func grantMatches(grant, required string) bool {
	grantParts := strings.Split(grant, ":")
	requiredParts := strings.Split(required, ":")
	if len(grantParts) != 3 || len(requiredParts) != 3 {
		return false
	}

	for i := range grantParts {
		if grantParts[i] == "*" {
			continue
		}

		if !strings.EqualFold(grantParts[i], requiredParts[i]) {
			return false
		}
	}

	return true
}
