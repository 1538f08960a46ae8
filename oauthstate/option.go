package oauthstate

import (
	"errors"
	"net/http"
	"time"
)

// Defaults applied by NewStore when the corresponding option is not given.
const (
	DefaultCookieMaxAge  = 180 * time.Second
	DefaultRedirectParam = "redirect_uri"
)

// Option is how options for the Store are set up.
type Option func(*Store) error

// WithCookieMaxAge sets the lifetime of both correlation cookies. The
// default of three minutes is just long enough to survive the redirect
// round trip to the identity provider.
func WithCookieMaxAge(maxAge time.Duration) Option {
	return func(s *Store) error {
		if maxAge <= 0 {
			return errors.New("cookie max age must be positive")
		}
		s.cookieMaxAge = maxAge
		return nil
	}
}

// WithRedirectParam sets the query/form parameter read from the incoming
// request to populate the redirect-URL cookie.
//
// Default: DefaultRedirectParam.
func WithRedirectParam(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return errors.New("redirect parameter name cannot be empty")
		}
		s.redirectParam = name
		return nil
	}
}

// WithSecureCookies sets the Secure attribute on both cookies. Off by
// default to match plain-HTTP development setups; turn it on for any
// deployment terminating TLS.
func WithSecureCookies(secure bool) Option {
	return func(s *Store) error {
		s.secure = secure
		return nil
	}
}

// WithSameSite sets the SameSite attribute on both cookies.
//
// Default: http.SameSiteLaxMode, which still permits the top-level
// navigation back from the identity provider.
func WithSameSite(sameSite http.SameSite) Option {
	return func(s *Store) error {
		s.sameSite = sameSite
		return nil
	}
}
