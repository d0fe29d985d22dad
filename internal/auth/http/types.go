package http

import (
	"github.com/saludware/citamed/internal/auth/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailCodeRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse is the wire shape of a token pair; expires_in is seconds per
// the OAuth2 convention.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func newTokenResponse(pair *domain.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}

// loginResponse is the outcome of the password step. Exactly one of the token
// fields or the challenge is present, matching status.
type loginResponse struct {
	Status    string               `json:"status"`
	Tokens    *tokenResponse       `json:"tokens,omitempty"`
	Challenge *domain.MFAChallenge `json:"challenge,omitempty"`
}

type ackResponse struct {
	Status string `json:"status"`
}

type userinfoResponse struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
