package authmiddleware

import (
	"net/http"

	"github.com/coreauth/go-auth-middleware/identity"
)

// RequireRoles returns route-level authorization middleware: the one place
// requests are actually denied. It expects the authentication filter to
// have run earlier in the chain and rejects anonymous requests with 401 and
// identities missing any of the given roles with 403, via the supplied
// ErrorHandler (DefaultErrorHandler when nil).
//
// With no roles given, any authenticated identity passes.
func RequireRoles(errorHandler ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				errorHandler(w, r, ErrNoIdentity)
				return
			}

			for _, role := range roles {
				if !id.HasRole(role) {
					errorHandler(w, r, ErrForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
