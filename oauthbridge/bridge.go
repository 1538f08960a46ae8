// Package oauthbridge is the terminal step of the OAuth2 login flow: it
// converts a provider-validated login into the same identity tokens used by
// the bearer-token flow, or reports the failure, and in either case consumes
// the correlation cookies.
package oauthbridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/oauthstate"
	"github.com/coreauth/go-auth-middleware/token"
)

// ResponseMode selects how the success path delivers the minted tokens.
type ResponseMode string

const (
	// ModeJSON writes the token pair as a JSON body.
	ModeJSON = ResponseMode("JSON")
	// ModeRedirect redirects to the client with the tokens as query
	// parameters.
	ModeRedirect = ResponseMode("REDIRECT")
)

// LoginResult is the outcome handed over by the OAuth2 provider client
// library after a successful third-party login.
type LoginResult struct {
	// Name is the authentication's default principal name.
	Name string
	// Attributes is the provider-supplied user profile.
	Attributes map[string]any
	// Authorities are the granted roles, possibly empty.
	Authorities []string
}

// TokenResponse is the JSON body written on the success path.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// committedWriter is implemented by response writers that can report
// whether output has already been written. Framework response writers
// (echo, gin) satisfy it; a plain http.ResponseWriter never reports
// committed.
type committedWriter interface {
	Written() bool
}

// Bridge converts OAuth2 login results into identity tokens.
type Bridge struct {
	codec                  *token.Codec
	store                  *oauthstate.Store
	mode                   ResponseMode
	successRedirectURL     string
	authorizedRedirectURIs []string
	principalAttribute     string
	defaultAuthorities     []string
	logger                 authmiddleware.Logger
}

// NewBridge constructs a Bridge from the supplied options.
// WithCodec and WithStore are required.
func NewBridge(opts ...Option) (*Bridge, error) {
	b := &Bridge{
		mode:               ModeJSON,
		defaultAuthorities: []string{"ROLE_USER"},
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if b.codec == nil {
		return nil, ErrCodecNil
	}
	if b.store == nil {
		return nil, ErrStoreNil
	}

	return b, nil
}

// Success handles a successful third-party login: it resolves the
// principal, mints an access and a refresh token, consumes the correlation
// cookies, and delivers the tokens in the configured response mode.
func (b *Bridge) Success(w http.ResponseWriter, r *http.Request, result LoginResult) {
	if cw, ok := w.(committedWriter); ok && cw.Written() {
		// Another component already wrote the response. Consume the
		// cookies and back off rather than double-writing.
		b.store.Remove(w, r)
		return
	}

	subject := b.resolvePrincipal(result)
	authorities := b.resolveAuthorities(result)

	accessToken, err := b.codec.IssueAccessToken(subject, authorities)
	if err != nil {
		b.store.Remove(w, r)
		b.errorf("could not issue access token for %q: %v", subject, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "token_issue_failed",
			"message": "could not issue tokens",
		})
		return
	}

	refreshToken, err := b.codec.IssueRefreshToken(subject)
	if err != nil {
		b.store.Remove(w, r)
		b.errorf("could not issue refresh token for %q: %v", subject, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "token_issue_failed",
			"message": "could not issue tokens",
		})
		return
	}

	tokenResponse := TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(b.codec.AccessTTL().Seconds()),
	}

	// Success consumes the correlation cookies. The redirect-URL cookie is
	// read before removal since removal clears it.
	requestedRedirect := b.store.RedirectURL(r)
	b.store.Remove(w, r)

	if b.mode == ModeRedirect {
		if target := b.resolveRedirectTarget(requestedRedirect); target != "" {
			http.Redirect(w, r, appendTokenParams(target, tokenResponse), http.StatusFound)
			return
		}
		// No usable redirect target configured or requested; fall through
		// to the JSON body so the tokens are not lost.
	}

	writeJSON(w, http.StatusOK, tokenResponse)
}

// Failure handles a failed third-party login. The attempt is terminal: the
// correlation cookies are cleared and the caller must restart the flow.
func (b *Bridge) Failure(w http.ResponseWriter, r *http.Request, loginErr error) {
	b.store.Remove(w, r)

	message := "OAuth2 authentication failed"
	if loginErr != nil && loginErr.Error() != "" {
		message = loginErr.Error()
	}

	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":   "oauth2_auth_failed",
		"message": message,
	})
}

// resolvePrincipal prefers the configured profile attribute when the
// provider supplied it non-blank, falling back to the authentication's
// default name.
func (b *Bridge) resolvePrincipal(result LoginResult) string {
	if b.principalAttribute != "" {
		if value, ok := result.Attributes[b.principalAttribute].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return result.Name
}

// resolveAuthorities substitutes the configured default roles when the
// login result carries none, so a successful login never produces a
// role-less identity.
func (b *Bridge) resolveAuthorities(result LoginResult) []string {
	if len(result.Authorities) > 0 {
		return result.Authorities
	}
	return b.defaultAuthorities
}

// resolveRedirectTarget picks the redirect target for ModeRedirect: the
// cookie-requested URL when it passes the allow-list, else the configured
// success URL, else empty.
func (b *Bridge) resolveRedirectTarget(requested string) string {
	if requested != "" && b.isAuthorizedRedirectURI(requested) {
		return requested
	}
	if requested != "" {
		b.debugf("rejecting unauthorized redirect URL %q", requested)
	}
	return b.successRedirectURL
}

// isAuthorizedRedirectURI checks the requested URL against the configured
// allow-list on scheme, host, and port; the path is ignored. An empty
// allow-list accepts any URL, by explicit configuration default.
func (b *Bridge) isAuthorizedRedirectURI(uri string) bool {
	if len(b.authorizedRedirectURIs) == 0 {
		return true
	}

	requested, err := url.Parse(uri)
	if err != nil {
		return false
	}

	for _, authorized := range b.authorizedRedirectURIs {
		allowed, err := url.Parse(authorized)
		if err != nil {
			continue
		}
		if strings.EqualFold(allowed.Scheme, requested.Scheme) &&
			strings.EqualFold(allowed.Hostname(), requested.Hostname()) &&
			allowed.Port() == requested.Port() {
			return true
		}
	}

	return false
}

// appendTokenParams attaches the token response as query parameters on the
// target URL, preserving any query already present.
func appendTokenParams(target string, tr TokenResponse) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := u.Query()
	q.Set("access_token", tr.AccessToken)
	q.Set("refresh_token", tr.RefreshToken)
	q.Set("token_type", tr.TokenType)
	q.Set("expires_in", strconv.FormatInt(tr.ExpiresIn, 10))
	u.RawQuery = q.Encode()

	return u.String()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *Bridge) debugf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Debugf(format, args...)
	}
}

func (b *Bridge) errorf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Errorf(format, args...)
	}
}
