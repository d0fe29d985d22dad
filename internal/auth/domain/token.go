package domain

import "time"

// TokenPair is what a completed authentication returns: a short-lived access
// token and a longer-lived refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// IssuedToken models the ledger record kept for every issued access token.
// The ledger stores a fingerprint, not the raw token; the fingerprint serves
// only as a lookup key. A token is usable only while !Expired && !Revoked AND
// its own embedded expiry claim agrees. Rows are never deleted: flags flip,
// the audit trail stays.
type IssuedToken struct {
	ID               string
	PrincipalEmail   string
	TokenFingerprint string
	Expired          bool
	Revoked          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Active reports whether the ledger still considers the token usable. The
// embedded expiry claim is judged separately by the token service.
func (t IssuedToken) Active() bool {
	return !t.Expired && !t.Revoked
}
