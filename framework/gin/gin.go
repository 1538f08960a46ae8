// Package ginauth adapts the fail-open authentication filter to the Gin
// framework. The installed identity is mirrored into the gin.Context under
// a configurable key in addition to the request context.
package ginauth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/identity"
)

// DefaultIdentityKey is the gin.Context key the identity is stored under.
const DefaultIdentityKey = "identity"

type ginConfig struct {
	identityKey string
}

// Option configures the Gin adapter.
type Option func(*ginConfig)

// WithIdentityKey overrides the gin.Context key the identity is stored
// under.
func WithIdentityKey(key string) Option {
	return func(c *ginConfig) {
		c.identityKey = key
	}
}

// Middleware wraps the authentication filter as a gin.HandlerFunc.
// Like the underlying filter it never aborts the chain; anonymous requests
// continue with no identity set.
func Middleware(m *authmiddleware.Middleware, opts ...Option) gin.HandlerFunc {
	cfg := &ginConfig{identityKey: DefaultIdentityKey}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			if id, ok := identity.FromContext(r.Context()); ok {
				c.Set(cfg.identityKey, id)
			}
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// IdentityFromContext retrieves the identity an earlier Middleware stored
// in the gin.Context under the default key.
func IdentityFromContext(c *gin.Context) (identity.Identity, bool) {
	value, exists := c.Get(DefaultIdentityKey)
	if !exists {
		return identity.Identity{}, false
	}
	id, ok := value.(identity.Identity)
	return id, ok
}
