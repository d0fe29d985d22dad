package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/cryptox"
	"github.com/saludware/citamed/pkg/slogx"
)

// LoginService is the login state machine. It orchestrates the credential
// verifier, the second-factor services and the token service; it owns no
// state of its own beyond its dependencies.
type LoginService struct {
	Store      store.Store
	Tokens     *TokenService
	MFA        *MFAService
	EmailCodes *EmailCodeService
}

// Login runs the password step. Unknown email and wrong password collapse
// into the same ErrInvalidCredentials so the response never reveals whether
// an account exists. For MFA-enabled principals no tokens are issued yet;
// the caller gets a challenge and must come back through VerifyLogin.
func (s *LoginService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	logger := slogx.FromContext(ctx)

	// 1. Resolve the principal.
	p, err := s.Store.Principals().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup principal: %w", ErrInfrastructure, err)
	}

	// 2. Check the password. Any verify failure, mismatch or malformed
	//    stored hash, reads as invalid credentials to the caller.
	if err := cryptox.VerifyPassword(password, p.PasswordHash()); err != nil {
		logger.Info("password step failed", "principal", email)
		return nil, ErrInvalidCredentials
	}

	// 3. Single-factor principals are done: revoke-then-issue atomically.
	if !p.MFAEnabled() {
		pair, err := s.Tokens.IssuePair(ctx, p)
		if err != nil {
			return nil, err
		}
		return &domain.LoginResult{
			Status: domain.StatusAuthenticated,
			Tokens: pair,
		}, nil
	}

	// 4. MFA principals get a challenge instead. The secret is provisioned
	//    lazily on first use and reused on every later login.
	secret, err := s.MFA.EnsureSecret(ctx, p)
	if err != nil {
		return nil, err
	}
	challenge, err := s.MFA.Challenge(p, secret)
	if err != nil {
		return nil, err
	}

	logger.Info("mfa challenge issued", "principal", email)
	return &domain.LoginResult{
		Status:    domain.StatusChallengeIssued,
		Challenge: challenge,
	}, nil
}

// VerifyLogin runs the second-factor step. The principal is re-fetched from
// storage (no server-side challenge state survives between the steps). The
// submitted code is tried as TOTP first, then as an email code; the caller
// never learns which path matched or why both missed. An email-code
// infrastructure failure propagates as such rather than reading as a wrong
// code.
func (s *LoginService) VerifyLogin(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	logger := slogx.FromContext(ctx)

	// 1. Re-derive everything from storage.
	p, err := s.Store.Principals().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup principal: %w", ErrInfrastructure, err)
	}

	// 2. TOTP first: cheap, local, no cache round trip.
	verified := false
	if secret := p.MFASecret(); secret != nil && *secret != "" {
		verified = s.MFA.VerifyCode(*secret, code)
	}

	// 3. Fall back to the email code.
	if !verified {
		ok, err := s.EmailCodes.Verify(ctx, email, code)
		if err != nil {
			return nil, err
		}
		verified = ok
	}

	if !verified {
		logger.Info("second factor failed", "principal", email)
		return nil, ErrInvalidOTP
	}

	// 4. Consume any outstanding email code so it cannot complete another
	//    login, then issue the pair. Invalidation failures are logged, not
	//    fatal: the TTL still bounds the exposure.
	if err := s.EmailCodes.Invalidate(ctx, email); err != nil {
		logger.Warn("email code invalidation failed", "principal", email, "error", err)
	}

	return s.Tokens.IssuePair(ctx, p)
}

// SendEmailCode issues a fresh email code for an MFA login in progress.
// Unknown emails fail exactly like bad credentials so the endpoint cannot be
// used to probe for accounts.
func (s *LoginService) SendEmailCode(ctx context.Context, email string) error {
	p, err := s.Store.Principals().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: lookup principal: %w", ErrInfrastructure, err)
	}

	return s.EmailCodes.Send(ctx, p)
}

// Logout retires the presented token only, not the whole session family. A
// token the ledger has never seen logs out successfully; there is nothing
// useful to tell the caller.
func (s *LoginService) Logout(ctx context.Context, token string) error {
	return s.Tokens.Revoke(ctx, token)
}

// ValidateRequest is the request gate for protected endpoints. Four checks,
// all of which must hold: the token decodes (signature intact), the ledger
// row is still active, the embedded expiry is in the future, and the subject
// still resolves to a principal. Ledger revocation dominates embedded
// expiry: a revoked token is rejected even while its claims are fresh.
func (s *LoginService) ValidateRequest(ctx context.Context, token string) (domain.Principal, error) {
	logger := slogx.FromContext(ctx)

	// 1. Structural validity. Tampering is the only failure here; an expired
	//    token still decodes so we can tell the two cases apart below.
	subject, err := s.Tokens.Subject(token)
	if err != nil {
		logger.Warn("rejected tampered token")
		return nil, err
	}

	// 2. Ledger activity, fail-closed.
	active, err := s.Tokens.IsActive(ctx, token)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrTokenExpired
	}

	// 3. Resolve the principal behind the subject claim.
	p, err := s.Store.Principals().GetByEmail(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup principal: %w", ErrInfrastructure, err)
	}

	// 4. Embedded expiry, judged against the principal the token claims.
	if !s.Tokens.Validate(token, p) {
		return nil, ErrTokenExpired
	}

	return p, nil
}

// Refresh exchanges a refresh token for a fresh pair. The refresh token gets
// the full verification treatment, signature and expiry both, and the
// principal is re-fetched so revoked accounts or changed roles take effect
// immediately.
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.Tokens.Verifier.Decode(refreshToken)
	if err != nil {
		slogx.FromContext(ctx).Warn("rejected refresh token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTokenTampered, err)
	}
	if err := claims.ValidateIssuer(s.Tokens.Issuer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenTampered, err)
	}
	if err := claims.ValidateExpiry(s.Tokens.now()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}

	p, err := s.Store.Principals().GetByEmail(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup principal: %w", ErrInfrastructure, err)
	}

	return s.Tokens.IssuePair(ctx, p)
}
