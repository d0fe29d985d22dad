package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/qrx"
	"github.com/saludware/citamed/pkg/slogx"
)

// TOTP parameters, fixed to the authenticator-app de-facto standard. Changing
// any of these invalidates every enrolled authenticator.
const (
	totpPeriod uint = 30
	totpDigits      = otp.DigitsSix
	totpAlgo        = otp.AlgorithmSHA1
)

// MFAService provisions and verifies time-based one-time passwords. The
// secret is created lazily on the first MFA-gated login and reused forever
// after, so re-running the password step never re-enrolls an authenticator.
type MFAService struct {
	Store store.Store

	// Issuer labels the account in authenticator apps.
	Issuer string

	// Skew is the number of adjacent periods accepted around the current one,
	// absorbing client clock drift. Zero means 1 (one period either side).
	Skew uint

	Now func() time.Time
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MFAService) skew() uint {
	if s.Skew > 0 {
		return s.Skew
	}
	return 1
}

// EnsureSecret returns the principal's TOTP secret, generating and persisting
// one if none exists yet. Idempotent: a second call returns the stored secret
// unchanged.
func (s *MFAService) EnsureSecret(ctx context.Context, p domain.Principal) (string, error) {
	if existing := p.MFASecret(); existing != nil && *existing != "" {
		return *existing, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: p.LoginKey(),
		Period:      totpPeriod,
		Digits:      totpDigits,
		Algorithm:   totpAlgo,
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate totp secret: %w", ErrInfrastructure, err)
	}

	secret := key.Secret()
	if err := s.Store.Principals().UpdateMFASecret(ctx, p.PrincipalID(), secret); err != nil {
		return "", fmt.Errorf("%w: persist totp secret: %w", ErrInfrastructure, err)
	}

	slogx.FromContext(ctx).Info("totp secret provisioned", "principal", p.LoginKey())
	return secret, nil
}

// Challenge builds the second-factor challenge payload for a principal whose
// password step succeeded. No server-side challenge state is created; the
// verify step re-derives everything from storage.
func (s *MFAService) Challenge(p domain.Principal, secret string) (*domain.MFAChallenge, error) {
	uri := s.provisioningURI(p.LoginKey(), secret)

	qr, err := qrx.GenerateDataURI(uri, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: render provisioning qr: %w", ErrInfrastructure, err)
	}

	return &domain.MFAChallenge{
		Methods:         []string{"totp", "email_code"},
		ProvisioningURI: uri,
		QRCode:          qr,
		Issuer:          s.Issuer,
		Account:         p.LoginKey(),
	}, nil
}

// VerifyCode checks a submitted TOTP code against the secret at the current
// time, accepting the configured skew. A wrong code is a plain false, never
// an error.
func (s *MFAService) VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      s.skew(),
		Digits:    totpDigits,
		Algorithm: totpAlgo,
	})
	if err != nil {
		return false
	}
	return ok
}

// provisioningURI renders the otpauth:// URI authenticator apps import. The
// label is issuer:account per the Key Uri Format convention.
func (s *MFAService) provisioningURI(account, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", s.Issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", strconv.Itoa(6))
	q.Set("period", strconv.FormatUint(uint64(totpPeriod), 10))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + s.Issuer + ":" + account,
		RawQuery: q.Encode(),
	}
	return u.String()
}
