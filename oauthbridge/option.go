package oauthbridge

import (
	"errors"
	"fmt"

	authmiddleware "github.com/coreauth/go-auth-middleware"
	"github.com/coreauth/go-auth-middleware/oauthstate"
	"github.com/coreauth/go-auth-middleware/token"
)

// Option is how options for the Bridge are set up.
type Option func(*Bridge) error

// Sentinel errors for configuration validation.
var (
	ErrCodecNil = errors.New("codec cannot be nil (use WithCodec)")
	ErrStoreNil = errors.New("store cannot be nil (use WithStore)")
)

// WithCodec sets the token codec used to mint the token pair (REQUIRED).
func WithCodec(c *token.Codec) Option {
	return func(b *Bridge) error {
		if c == nil {
			return ErrCodecNil
		}
		b.codec = c
		return nil
	}
}

// WithStore sets the authorization-request store whose cookies are consumed
// on every terminal path (REQUIRED).
func WithStore(s *oauthstate.Store) Option {
	return func(b *Bridge) error {
		if s == nil {
			return ErrStoreNil
		}
		b.store = s
		return nil
	}
}

// WithResponseMode selects JSON or redirect delivery on the success path.
//
// Default: ModeJSON.
func WithResponseMode(mode ResponseMode) Option {
	return func(b *Bridge) error {
		if mode != ModeJSON && mode != ModeRedirect {
			return fmt.Errorf("unsupported response mode: %q", mode)
		}
		b.mode = mode
		return nil
	}
}

// WithSuccessRedirectURL sets the fallback redirect target used in
// ModeRedirect when no per-request redirect cookie is present or the
// requested URL fails the allow-list.
func WithSuccessRedirectURL(u string) Option {
	return func(b *Bridge) error {
		b.successRedirectURL = u
		return nil
	}
}

// WithAuthorizedRedirectURIs sets the allow-list for redirect targets,
// matched on scheme, host, and port. An EMPTY list accepts any redirect
// URL. That is the deliberate default for development setups; production
// deployments should always configure the list.
func WithAuthorizedRedirectURIs(uris []string) Option {
	return func(b *Bridge) error {
		b.authorizedRedirectURIs = uris
		return nil
	}
}

// WithPrincipalAttribute names the provider-profile field preferred as the
// token subject over the authentication's default name.
func WithPrincipalAttribute(name string) Option {
	return func(b *Bridge) error {
		b.principalAttribute = name
		return nil
	}
}

// WithDefaultAuthorities sets the roles substituted when the login result
// carries none.
//
// Default: ["ROLE_USER"].
func WithDefaultAuthorities(authorities []string) Option {
	return func(b *Bridge) error {
		if len(authorities) == 0 {
			return errors.New("default authorities cannot be empty")
		}
		b.defaultAuthorities = authorities
		return nil
	}
}

// WithLogger sets an optional logger for the bridge.
func WithLogger(logger authmiddleware.Logger) Option {
	return func(b *Bridge) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}
