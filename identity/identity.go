// Package identity carries the request-scoped authenticated principal.
//
// An Identity is installed into the request context by the authentication
// filter on successful token validation and lives only for the duration of
// that request. It is never persisted and never stored in ambient global
// state; downstream code reads it back with FromContext.
package identity

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
// Only this package can create context keys, so no other package can
// overwrite or shadow the installed identity.
type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated principal for the current request:
// the subject name plus the granted roles from the validated token.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity was granted the given role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// WithIdentity returns a context carrying the given identity.
// This is a helper for the authentication filter and framework adapters to
// install the identity after validation.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext retrieves the identity from the context. The second return
// value is false when the request is anonymous.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// HasIdentity checks whether an identity is present without retrieving it.
func HasIdentity(ctx context.Context) bool {
	_, ok := ctx.Value(identityKey).(Identity)
	return ok
}
