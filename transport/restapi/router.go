package restapi

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/internal/svc/authzsvc"
	"github.com/prasastie/munggah/internal/svc/systemsvc"
	"github.com/prasastie/munggah/pkg/tracer"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/prasastie/munggah/transport/restapi/handleraccount"
	"github.com/prasastie/munggah/transport/restapi/handlersystem"
	"go.opentelemetry.io/otel"
)

type Config struct {
	AppServiceName string            `validate:"required"`
	AppVersion     string            `validate:"required"`
	SystemService  systemsvc.Service `validate:"required"`
	AccountRepo    accountrepo.Repo  `validate:"required"`
	AuthzService   authzsvc.Service  `validate:"required"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** System handler
	handlerSystem, err := handlersystem.NewHandler(handlersystem.HandlerConfig{
		SystemService: cfg.SystemService,
	})
	if err != nil {
		return nil, err
	}

	// ** Account handler
	handlerAccount, err := handleraccount.NewHandler(handleraccount.HandlerConfig{
		AccountRepo: cfg.AccountRepo,
	})
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		switch strings.TrimSpace(path.Clean(r.URL.Path)) {
		case "/health",
			"/ping":
			return true
		}

		return false
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/prasastie/munggah",
			ServiceName:    cfg.AppServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ping": "pong"}`))
	})

	// Resource: system
	router.Route("/system", func(r chi.Router) {
		r.With(authzsvc.Requires(cfg.AuthzService, authzsvc.Permission{
			Domain: authzsvc.Static("system"),
			Action: authzsvc.Static("read"),
			Target: authzsvc.Static("version"),
		})).Get("/versions", handlerSystem.Versions())

		r.With(authzsvc.Requires(cfg.AuthzService, authzsvc.Permission{
			Domain: authzsvc.Static("system"),
			Action: authzsvc.Static("update"),
			Target: authzsvc.Static("schema"),
		})).Post("/upgrade", handlerSystem.Upgrade())
	})

	// Resource: accounts
	router.Route("/api/v1/accounts", func(r chi.Router) {
		r.With(authzsvc.Requires(cfg.AuthzService, authzsvc.Permission{
			Domain: authzsvc.Static("accounts"),
			Action: authzsvc.Static("read"),
			Target: authzsvc.Static("*"),
		})).Get("/", handlerAccount.ListAccounts())
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}
