package token

import "time"

// Claims holds the decoded payload of a validated identity token.
// Instances are only produced by Codec.ParseAndValidate, so holding a
// *Claims means the signature and expiry checks already passed.
type Claims struct {
	Subject   string
	Roles     []string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RemainingValidity returns how long the token stays valid from the given
// instant. Non-positive once expired.
func (c *Claims) RemainingValidity(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// HasRole reports whether the roles claim contains the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
