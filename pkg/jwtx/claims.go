// Package jwtx signs and verifies the service's bearer credentials. Both
// access and refresh tokens are EdDSA-signed JWTs; they differ only in TTL.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens, longer refresh tokens.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrTampered reports a token whose structure or signature does not
	// verify. Treated as security-relevant by callers.
	ErrTampered = errors.New("jwtx: token tampered or malformed")

	// ErrExpired reports a structurally valid token past its embedded
	// expiry. Routine, not security-relevant.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrIssuer reports an issuer claim mismatch.
	ErrIssuer = errors.New("jwtx: issuer mismatch")
)

// Claims are the claims embedded in every issued token.
type Claims struct {
	jwt.RegisteredClaims

	// Role of the principal ("patient", "practitioner", "admin"). Carried so
	// resource servers can authorise without a directory lookup.
	Role string `json:"role,omitempty"`
}

// NewClaims builds minimally-correct claims for a principal. Subject is the
// principal's login key (email).
func NewClaims(subject, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer claim against the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token has not expired (exp) and is not used
// before it is valid (nbf). Comparisons are strict, no grace window.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrExpired
	}
	return nil
}
