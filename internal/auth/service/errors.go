package service

import "errors"

// Error taxonomy for the authentication core. The first two are expected and
// user-facing, deliberately undifferentiated so a caller learns nothing about
// which field or factor failed. ErrInfrastructure is the only class a caller
// may safely retry; it must never be downgraded into an invalid-code error,
// since lockout policies key off the distinction.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidOTP         = errors.New("invalid_otp")
	ErrInfrastructure     = errors.New("infrastructure_failure")

	// ErrTokenTampered reports a token whose signature or structure failed
	// to decode. Security-relevant, logged distinctly.
	ErrTokenTampered = errors.New("token_tampered")

	// ErrTokenExpired reports a token past its embedded or ledger-recorded
	// expiry. Routine, not security-relevant.
	ErrTokenExpired = errors.New("token_expired")
)
