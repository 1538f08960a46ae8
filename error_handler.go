package authmiddleware

import (
	"errors"
	"net/http"
)

var (
	// ErrNoIdentity is returned by route-level authorization when the
	// request reached it without an authenticated identity.
	ErrNoIdentity = errors.New("authentication required")

	// ErrForbidden is returned by route-level authorization when the
	// authenticated identity lacks a required role.
	ErrForbidden = errors.New("insufficient roles")
)

// ErrorHandler is a handler which is called when route-level authorization
// denies a request. The err can be checked to be ErrNoIdentity or
// ErrForbidden for specific cases. The default handler will return a status
// code of 401 for ErrNoIdentity, 403 for ErrForbidden, and 500 for all
// other errors. If you implement your own ErrorHandler you MUST take the
// error types into consideration as not properly responding to them could
// result in the authorization layer not functioning as intended.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for
// route-level authorization. It is used when RequireRoles is given a nil
// handler.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, ErrNoIdentity):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authentication required."}`))
	case errors.Is(err, ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Insufficient permissions."}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Something went wrong while authorizing the request."}`))
	}
}
