// Package token creates and verifies the signed, expiring identity tokens
// used across the auth middleware stack.
//
// Two token flavors share the same structure: access tokens carry a roles
// claim and are short-lived, refresh tokens carry no roles claim and are
// long-lived. Tokens are immutable once issued; refreshing always mints a
// new token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// rolesClaim is the private claim carrying the granted authorities.
const rolesClaim = "authorities"

var (
	// ErrInvalidToken is returned when a token cannot be validated for any
	// reason other than expiry: malformed encoding, signature mismatch,
	// unsupported algorithm, or any parse failure. Callers get a single
	// valid/invalid outcome and no further detail.
	ErrInvalidToken = errors.New("token invalid")

	// ErrTokenExpired is returned when the signature verified but the token
	// is past its expiry. It matches ErrInvalidToken under errors.Is so
	// callers that only care about valid/invalid need a single check.
	ErrTokenExpired = &expiredError{}
)

type expiredError struct{}

func (e *expiredError) Error() string { return "token expired" }

// Is allows the error to support equality to ErrInvalidToken, since an
// expired token is also an invalid one.
func (e *expiredError) Is(target error) bool {
	return target == ErrInvalidToken || target == ErrTokenExpired
}

// invalidError wraps the underlying parse or signature failure with the
// concrete error ErrInvalidToken. Not exported; Is and Unwrap give callers
// all they need.
type invalidError struct {
	details error
}

func (e *invalidError) Is(target error) bool { return target == ErrInvalidToken }

func (e *invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidToken, e.details)
}

func (e *invalidError) Unwrap() error { return e.details }

// Codec creates and verifies identity tokens. It is stateless beyond its
// construction-time configuration: the signing key is loaded once and is
// read-only for the lifetime of the process, so a single Codec is safe for
// concurrent use from any number of request goroutines.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
}

// NewCodec constructs a Codec from the supplied options.
// WithSecret is required; the secret must be at least 32 bytes so the
// derived HMAC-SHA256 key meets the minimum key length for the algorithm.
//
// Example:
//
//	codec, err := token.NewCodec(
//	    token.WithSecret(secret),
//	    token.WithIssuer("account-service"),
//	    token.WithAccessTTL(time.Hour),
//	)
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{
		issuer:     DefaultIssuer,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		clock:      time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if len(c.secret) == 0 {
		return nil, errors.New("signing secret is required (use WithSecret)")
	}

	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// IssueAccessToken mints a signed access token for the subject. The roles
// claim is embedded exactly as given: order preserved, duplicates kept, and
// an empty or nil slice produces an empty roles claim.
func (c *Codec) IssueAccessToken(subject string, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	return c.issue(subject, map[string]any{rolesClaim: roles}, c.accessTTL)
}

// IssueRefreshToken mints a signed refresh token for the subject. Refresh
// tokens carry no roles claim.
func (c *Codec) IssueRefreshToken(subject string) (string, error) {
	return c.issue(subject, nil, c.refreshTTL)
}

func (c *Codec) issue(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := c.clock()
	builder := jwt.NewBuilder().
		Subject(subject).
		Issuer(c.issuer).
		IssuedAt(now).
		Expiration(now.Add(ttl))

	for name, value := range claims {
		builder = builder.Claim(name, value)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("could not build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return string(signed), nil
}

// ParseAndValidate verifies the token signature and expiry and returns the
// decoded claims. This is the single safe entry point: validation and claim
// extraction are fused so callers never handle unverified claim data.
//
// Malformed encoding, a signature mismatch, an unsupported algorithm, and
// every other parse failure collapse into ErrInvalidToken. Expiry is checked
// strictly (now must be before exp) and only after the signature verified,
// surfacing as ErrTokenExpired. An empty token string is a normal
// ErrInvalidToken outcome, never a panic.
func (c *Codec) ParseAndValidate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, &invalidError{details: errors.New("empty token")}
	}

	parsed, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, &invalidError{details: err}
	}

	claims := claimsOf(parsed)
	if !c.clock().Before(claims.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// InsecureSubject extracts the subject WITHOUT verifying the signature or
// expiry. The caller must have already validated the token with
// ParseAndValidate; never call this on untrusted input.
func (c *Codec) InsecureSubject(tokenString string) (string, error) {
	parsed, err := jwt.ParseInsecure([]byte(tokenString))
	if err != nil {
		return "", &invalidError{details: err}
	}
	return parsed.Subject(), nil
}

// InsecureRoles extracts the roles claim WITHOUT verifying the signature or
// expiry, returning an empty slice when the claim is absent (as it is on
// refresh tokens). The same caller contract as InsecureSubject applies.
func (c *Codec) InsecureRoles(tokenString string) ([]string, error) {
	parsed, err := jwt.ParseInsecure([]byte(tokenString))
	if err != nil {
		return nil, &invalidError{details: err}
	}
	return rolesOf(parsed), nil
}

func claimsOf(tok jwt.Token) *Claims {
	return &Claims{
		Subject:   tok.Subject(),
		Roles:     rolesOf(tok),
		Issuer:    tok.Issuer(),
		IssuedAt:  tok.IssuedAt(),
		ExpiresAt: tok.Expiration(),
	}
}

func rolesOf(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return []string{}
	}

	values, ok := raw.([]interface{})
	if !ok {
		return []string{}
	}

	roles := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
