package authzsvc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// BoundValue is one part of a permission (domain, action or target) whose
// concrete string is resolved per request. Exactly three variants exist:
// Static, Param and Account.
type BoundValue interface {
	resolve(r *http.Request, id Identity) (string, error)
}

type staticValue struct {
	value string
}

func (s staticValue) resolve(_ *http.Request, _ Identity) (string, error) {
	return s.value, nil
}

// Static binds a permission part to a fixed string known at route
// registration time.
func Static(value string) BoundValue {
	return staticValue{value: value}
}

type paramValue struct {
	name string
}

func (p paramValue) resolve(r *http.Request, _ Identity) (string, error) {
	value := chi.URLParam(r, p.name)
	if value == "" {
		return "", fmt.Errorf("route param '%s' is empty, cannot bind permission part", p.name)
	}

	return value, nil
}

// Param binds a permission part to a chi route parameter.
func Param(name string) BoundValue {
	return paramValue{name: name}
}

type accountValue struct{}

func (accountValue) resolve(_ *http.Request, id Identity) (string, error) {
	if id.Username == "" {
		return "", fmt.Errorf("identity has no username, cannot bind permission part")
	}

	return id.Username, nil
}

// Account binds a permission part to the authenticated account's username.
func Account() BoundValue {
	return accountValue{}
}

// Permission is one required capability in domain:action:target form.
type Permission struct {
	Domain BoundValue
	Action BoundValue
	Target BoundValue
}

// Bind resolves all three parts against the request and identity and returns
// the flat "domain:action:target" string the grant matcher understands.
func (p Permission) Bind(r *http.Request, id Identity) (string, error) {
	parts := make([]string, 0, 3)
	for _, bv := range []BoundValue{p.Domain, p.Action, p.Target} {
		if bv == nil {
			bv = Static("*")
		}

		value, err := bv.resolve(r, id)
		if err != nil {
			return "", err
		}

		parts = append(parts, value)
	}

	return strings.Join(parts, ":"), nil
}
