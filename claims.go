package careerpilot

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the decoded, verified payload of a session token: the
// subject it vouches for plus its validity window. Role and permissions are
// deliberately absent; authorization is re-derived from the store on every
// request that needs it, so a role change takes effect immediately instead of
// waiting out token expiry.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Subject returns the account identifier the token vouches for.
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
