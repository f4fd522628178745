package authzsvc

import (
	"errors"
	"net/http"

	"github.com/prasastie/munggah/pkg/respbuilder"
	"github.com/yusufsyaifudin/ylog"
)

// Requires wraps a handler so it only runs for an authenticated identity
// whose grants cover every listed permission. The resolved identity is
// injected into the request context, handlers read it via Extract.
func Requires(svc Service, permissions ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, err := svc.Authenticate(r)
			if err != nil {
				resp := respbuilder.Error(ctx, respbuilder.ErrUnauthenticated, err)
				respbuilder.WriteJSON(http.StatusUnauthorized, w, r, resp)
				return
			}

			bound := make([]string, 0, len(permissions))
			for _, perm := range permissions {
				var value string
				value, err = perm.Bind(r, id)
				if err != nil {
					ylog.Error(ctx, "cannot bind permission", ylog.KV("error", err))

					resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
					respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
					return
				}

				bound = append(bound, value)
			}

			err = svc.Authorize(ctx, id, bound)
			if errors.Is(err, ErrPermissionDenied) {
				resp := respbuilder.Error(ctx, respbuilder.ErrForbidden, err)
				respbuilder.WriteJSON(http.StatusForbidden, w, r, resp)
				return
			}

			if err != nil {
				resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
				respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
				return
			}

			next.ServeHTTP(w, r.WithContext(Inject(ctx, id)))
		})
	}
}
