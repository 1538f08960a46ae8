// Package echoauth adapts the fail-open authentication filter to the Echo
// framework. The installed identity is mirrored into the echo.Context under
// a configurable key in addition to the request context.
package echoauth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/identity"
)

// DefaultIdentityKey is the echo.Context key the identity is stored under.
const DefaultIdentityKey = "identity"

type echoConfig struct {
	identityKey string
}

// Option configures the Echo adapter.
type Option func(*echoConfig)

// WithIdentityKey overrides the echo.Context key the identity is stored
// under.
func WithIdentityKey(key string) Option {
	return func(c *echoConfig) {
		c.identityKey = key
	}
}

// Middleware wraps the authentication filter as an echo.MiddlewareFunc.
// Like the underlying filter it never rejects a request; anonymous requests
// continue with no identity set.
func Middleware(m *authmiddleware.Middleware, opts ...Option) echo.MiddlewareFunc {
	cfg := &echoConfig{identityKey: DefaultIdentityKey}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error

			handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if id, ok := identity.FromContext(r.Context()); ok {
					c.Set(cfg.identityKey, id)
				}
				nextErr = next(c)
			}))

			handler.ServeHTTP(c.Response(), c.Request())
			return nextErr
		}
	}
}

// IdentityFromContext retrieves the identity an earlier Middleware stored
// in the echo.Context under the default key.
func IdentityFromContext(c echo.Context) (identity.Identity, bool) {
	id, ok := c.Get(DefaultIdentityKey).(identity.Identity)
	return id, ok
}
