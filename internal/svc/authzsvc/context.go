package authzsvc

import "context"

// context keys use concrete struct{} type to avoid allocation on assignment to interface{}.
type identityCtxKey struct{}

var identityKey = identityCtxKey{}

// Inject puts the authenticated Identity into context so downstream handlers
// can read it without re-parsing the token.
func Inject(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Extract gets the authenticated Identity from context.
func Extract(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Identity{}, false
	}

	return id, ok
}
