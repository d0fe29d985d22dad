package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/cryptox"
	"github.com/saludware/citamed/pkg/idx"
	"github.com/saludware/citamed/pkg/jwtx"
	"github.com/saludware/citamed/pkg/slogx"
)

// TokenService issues, validates and revokes the service's bearer tokens.
// Signing is stateless; the ledger in Store is the revocation authority and
// is consulted only by the ledger-aware methods (IssuePair, IsActive,
// Revoke). Validate and Subject judge the token string alone.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store

	Issuer     string
	AccessTTL  time.Duration // zero means jwtx.DefaultAccessTokenTTL
	RefreshTTL time.Duration // zero means jwtx.DefaultRefreshTokenTTL

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueAccessToken signs a short-lived access token for the principal. The
// subject claim is the login key (email); expiry is embedded in the token
// itself, independent of the ledger.
func (s *TokenService) IssueAccessToken(p domain.Principal) (string, error) {
	claims := jwtx.NewClaims(p.LoginKey(), p.Role(), s.Issuer, s.accessTTL(), s.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: sign access token: %w", ErrInfrastructure, err)
	}
	return token, nil
}

// IssueRefreshToken signs a refresh token. Identical claims shape, longer TTL.
func (s *TokenService) IssueRefreshToken(p domain.Principal) (string, error) {
	claims := jwtx.NewClaims(p.LoginKey(), p.Role(), s.Issuer, s.refreshTTL(), s.now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: sign refresh token: %w", ErrInfrastructure, err)
	}
	return token, nil
}

// IssuePair mints a fresh access+refresh pair and records the access token in
// the ledger. Revoking the principal's prior tokens and recording the new one
// happen in one transaction, so a crash can never leave two tokens active or
// a recorded token that was never revealed to the client.
func (s *TokenService) IssuePair(ctx context.Context, p domain.Principal) (*domain.TokenPair, error) {
	// 1. Sign both tokens up front. Signing is pure; nothing to roll back.
	access, err := s.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(p)
	if err != nil {
		return nil, err
	}

	// 2. Single-session policy: retire every still-active token and append
	//    the ledger row for the new access token atomically.
	now := s.now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.IssuedTokens().RevokeAllActive(ctx, p.LoginKey()); err != nil {
			return err
		}
		return tx.IssuedTokens().Create(ctx, domain.IssuedToken{
			ID:               idx.New().String(),
			PrincipalEmail:   p.LoginKey(),
			TokenFingerprint: cryptox.FingerprintToken(access),
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: record issued token: %w", ErrInfrastructure, err)
	}

	slogx.FromContext(ctx).Info("token pair issued", "principal", p.LoginKey())

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Validate reports whether the token is usable for the given principal on its
// own terms: untampered, subject matches the principal's login key, and the
// embedded expiry is strictly in the future. It never consults the ledger;
// combining both judgements is the request gate's job.
func (s *TokenService) Validate(token string, p domain.Principal) bool {
	claims, err := s.Verifier.Decode(token)
	if err != nil {
		return false
	}
	if claims.Subject != p.LoginKey() {
		return false
	}
	return claims.ExpiresAt != nil && s.now().Before(claims.ExpiresAt.Time)
}

// Subject extracts the subject (login key) from a token after verifying its
// signature. An expired token still yields its subject; only tampering fails.
func (s *TokenService) Subject(token string) (string, error) {
	claims, err := s.Verifier.Decode(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenTampered, err)
	}
	return claims.Subject, nil
}

// Expiry extracts the embedded expiry from a token after verifying its
// signature.
func (s *TokenService) Expiry(token string) (time.Time, error) {
	claims, err := s.Verifier.Decode(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTokenTampered, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry claim", ErrTokenTampered)
	}
	return claims.ExpiresAt.Time, nil
}

// IsActive reports whether the ledger still considers the token usable.
// Fail-closed: a fingerprint the ledger has never seen is inactive, and a
// ledger outage is an infrastructure error, never a silent pass.
func (s *TokenService) IsActive(ctx context.Context, token string) (bool, error) {
	row, err := s.Store.IssuedTokens().GetByFingerprint(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: ledger lookup: %w", ErrInfrastructure, err)
	}
	return row.Active(), nil
}

// Revoke retires the single presented token in the ledger. Revoking a token
// the ledger does not know is a no-op, which makes logout idempotent.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	err := s.Store.IssuedTokens().MarkExpiredRevoked(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: revoke token: %w", ErrInfrastructure, err)
	}
	return nil
}
