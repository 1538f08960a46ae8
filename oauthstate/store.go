// Package oauthstate correlates the start and callback legs of an OAuth2
// authorization-code exchange across otherwise-stateless requests.
//
// Instead of server-side session storage, the pending authorization request
// and the client's desired post-login redirect URL travel in two short-lived
// cookies: created when a login flow begins, read back when the provider
// redirects back, then unconditionally deleted.
package oauthstate

import (
	"fmt"
	"net/http"
	"time"
)

// Cookie names used for the correlation state.
const (
	AuthRequestCookieName = "oauth2_auth_request"
	RedirectURICookieName = "redirect_uri"
)

// Store reads and writes the OAuth2 correlation cookies. It holds only
// configuration; all state lives in the request/response pair in hand, so a
// single Store serves concurrent requests without locking.
type Store struct {
	cookieMaxAge  time.Duration
	redirectParam string
	secure        bool
	sameSite      http.SameSite
}

// NewStore constructs a Store from the supplied options.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		cookieMaxAge:  DefaultCookieMaxAge,
		redirectParam: DefaultRedirectParam,
		sameSite:      http.SameSiteLaxMode,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return s, nil
}

// Save writes the pending authorization request as a cookie on the
// response. If the incoming request carries the configured redirect
// parameter, the redirect URL is written as a second cookie with the same
// lifetime. A nil authReq clears both cookies instead (idempotent).
func (s *Store) Save(w http.ResponseWriter, r *http.Request, authReq *AuthorizationRequest) error {
	if authReq == nil {
		s.Remove(w, r)
		return nil
	}

	serialized, err := encode(authReq)
	if err != nil {
		return fmt.Errorf("could not serialize authorization request: %w", err)
	}
	s.addCookie(w, AuthRequestCookieName, serialized)

	if redirectURL := r.FormValue(s.redirectParam); redirectURL != "" {
		s.addCookie(w, RedirectURICookieName, redirectURL)
	}

	return nil
}

// Load reads the pending authorization request from the request cookies.
// A missing or corrupt cookie means no pending flow and returns nil.
func (s *Store) Load(r *http.Request) *AuthorizationRequest {
	cookie, err := r.Cookie(AuthRequestCookieName)
	if err != nil {
		return nil
	}
	return decode(cookie.Value)
}

// Remove returns the result of Load and then deletes both correlation
// cookies, whether or not they existed. Every terminal path of the flow
// goes through here so the two cookies are always cleared together.
//
// The cookies are expired on the response and also stripped from the
// request in hand, so they are single-use even within the same exchange: a
// second Load after Remove finds nothing.
func (s *Store) Remove(w http.ResponseWriter, r *http.Request) *AuthorizationRequest {
	authReq := s.Load(r)
	s.deleteCookie(w, AuthRequestCookieName)
	s.deleteCookie(w, RedirectURICookieName)
	stripRequestCookies(r, AuthRequestCookieName, RedirectURICookieName)
	return authReq
}

// RedirectURL reads the client's requested post-login redirect URL from its
// cookie without deleting anything. Empty when the cookie is absent.
func (s *Store) RedirectURL(r *http.Request) string {
	cookie, err := r.Cookie(RedirectURICookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Store) addCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(s.cookieMaxAge.Seconds()),
		Secure:   s.secure,
		SameSite: s.sameSite,
	})
}

// stripRequestCookies rewrites the request's Cookie header without the
// named cookies, keeping every other cookie intact.
func stripRequestCookies(r *http.Request, names ...string) {
	remaining := r.Cookies()
	r.Header.Del("Cookie")
	for _, cookie := range remaining {
		removed := false
		for _, name := range names {
			if cookie.Name == name {
				removed = true
				break
			}
		}
		if !removed {
			r.AddCookie(cookie)
		}
	}
}

func (s *Store) deleteCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		Secure:   s.secure,
		SameSite: s.sameSite,
	})
}
