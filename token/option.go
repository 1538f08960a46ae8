package token

import (
	"errors"
	"time"
)

// Defaults applied by NewCodec when the corresponding option is not given.
const (
	DefaultIssuer     = "go-auth-middleware"
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// minSecretLen is the minimum secret length in bytes for HMAC-SHA256.
const minSecretLen = 32

// Option is how options for the Codec are set up.
// Options return errors to enable validation during construction.
type Option func(*Codec) error

// WithSecret sets the key material for HMAC signing. This is a required
// option. The secret must be at least 32 bytes (256 bits).
func WithSecret(secret []byte) Option {
	return func(c *Codec) error {
		if len(secret) < minSecretLen {
			return errors.New("secret must be at least 32 bytes for HMAC-SHA256")
		}
		c.secret = secret
		return nil
	}
}

// WithIssuer sets the iss claim embedded in every issued token.
//
// Default: DefaultIssuer.
func WithIssuer(issuer string) Option {
	return func(c *Codec) error {
		if issuer == "" {
			return errors.New("issuer cannot be empty")
		}
		c.issuer = issuer
		return nil
	}
}

// WithAccessTTL sets the lifetime of issued access tokens.
//
// Default: DefaultAccessTTL.
func WithAccessTTL(ttl time.Duration) Option {
	return func(c *Codec) error {
		if ttl <= 0 {
			return errors.New("access TTL must be positive")
		}
		c.accessTTL = ttl
		return nil
	}
}

// WithRefreshTTL sets the lifetime of issued refresh tokens.
//
// Default: DefaultRefreshTTL.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(c *Codec) error {
		if ttl <= 0 {
			return errors.New("refresh TTL must be positive")
		}
		c.refreshTTL = ttl
		return nil
	}
}

// WithClock sets the time source used for the iat and exp claims and for
// the expiry check. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Codec) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		c.clock = clock
		return nil
	}
}
