// Package config binds the whole auth middleware stack to environment
// variables, the way downstream services deploy it: one Load at startup,
// then constructors that translate the bound values into the option sets
// of the individual components.
//
// All variables share the AUTH_ prefix, e.g. AUTH_JWT_SECRET,
// AUTH_OAUTH2_RESPONSE_MODE, AUTH_TRACE_GENERATE_IF_MISSING.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/oauthbridge"
	"github.com/coreauth/go-auth-middleware/oauthstate"
	"github.com/coreauth/go-auth-middleware/token"
)

const envPrefix = "auth"

// Config is the full configuration surface of the middleware stack.
type Config struct {
	JWT    JWTConfig    `envconfig:"JWT"`
	OAuth2 OAuth2Config `envconfig:"OAUTH2"`
	Trace  TraceConfig  `envconfig:"TRACE"`
}

// JWTConfig configures the token codec.
type JWTConfig struct {
	Secret     string        `envconfig:"SECRET" required:"true"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TTL" default:"1h"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TTL" default:"168h"`
	Issuer     string        `envconfig:"ISSUER" default:"go-auth-middleware"`
}

// OAuth2Config configures the authorization-request store and the result
// bridge.
type OAuth2Config struct {
	ResponseMode           string        `envconfig:"RESPONSE_MODE" default:"JSON"`
	SuccessRedirectURL     string        `envconfig:"SUCCESS_REDIRECT_URL"`
	AuthorizedRedirectURIs []string      `envconfig:"AUTHORIZED_REDIRECT_URIS"`
	RedirectParam          string        `envconfig:"REDIRECT_PARAM" default:"redirect_uri"`
	PrincipalAttribute     string        `envconfig:"PRINCIPAL_ATTRIBUTE"`
	DefaultAuthorities     []string      `envconfig:"DEFAULT_AUTHORITIES" default:"ROLE_USER"`
	CookieMaxAge           time.Duration `envconfig:"COOKIE_MAX_AGE" default:"180s"`
	SecureCookies          bool          `envconfig:"SECURE_COOKIES"`
}

// TraceConfig configures the trace-context middleware.
type TraceConfig struct {
	GenerateIfMissing bool `envconfig:"GENERATE_IF_MISSING"`
}

// Load binds the configuration from the environment.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewCodec builds the token codec from the bound JWT configuration.
func (c *Config) NewCodec() (*token.Codec, error) {
	return token.NewCodec(
		token.WithSecret([]byte(c.JWT.Secret)),
		token.WithIssuer(c.JWT.Issuer),
		token.WithAccessTTL(c.JWT.AccessTTL),
		token.WithRefreshTTL(c.JWT.RefreshTTL),
	)
}

// NewStore builds the authorization-request store from the bound OAuth2
// configuration.
func (c *Config) NewStore() (*oauthstate.Store, error) {
	return oauthstate.NewStore(
		oauthstate.WithCookieMaxAge(c.OAuth2.CookieMaxAge),
		oauthstate.WithRedirectParam(c.OAuth2.RedirectParam),
		oauthstate.WithSecureCookies(c.OAuth2.SecureCookies),
	)
}

// NewBridge builds the OAuth2 result bridge on top of an already
// constructed codec and store.
func (c *Config) NewBridge(codec *token.Codec, store *oauthstate.Store) (*oauthbridge.Bridge, error) {
	opts := []oauthbridge.Option{
		oauthbridge.WithCodec(codec),
		oauthbridge.WithStore(store),
		oauthbridge.WithResponseMode(oauthbridge.ResponseMode(c.OAuth2.ResponseMode)),
		oauthbridge.WithSuccessRedirectURL(c.OAuth2.SuccessRedirectURL),
		oauthbridge.WithAuthorizedRedirectURIs(c.OAuth2.AuthorizedRedirectURIs),
		oauthbridge.WithDefaultAuthorities(c.OAuth2.DefaultAuthorities),
	}
	if c.OAuth2.PrincipalAttribute != "" {
		opts = append(opts, oauthbridge.WithPrincipalAttribute(c.OAuth2.PrincipalAttribute))
	}
	return oauthbridge.NewBridge(opts...)
}

// NewMiddleware builds the authentication filter on top of an already
// constructed codec.
func (c *Config) NewMiddleware(codec *token.Codec, opts ...authmiddleware.Option) (*authmiddleware.Middleware, error) {
	return authmiddleware.New(append([]authmiddleware.Option{authmiddleware.WithCodec(codec)}, opts...)...)
}
