package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/saludware/citamed/internal/auth/domain"
)

func TestEnsureSecretIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := seedPrincipal(t, env, "carol@example.com", "s3cret!", true)

	p, err := env.store.Principals().GetByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Nil(t, p.MFASecret())

	secret, err := env.mfa.EnsureSecret(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	// A second password step must not re-enroll the authenticator.
	p, err = env.store.Principals().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	again, err := env.mfa.EnsureSecret(ctx, p)
	require.NoError(t, err)
	require.Equal(t, secret, again)
}

func TestChallengePayload(t *testing.T) {
	env := newTestEnv(t)
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "carol@example.com"}}

	ch, err := env.mfa.Challenge(p, "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	require.Equal(t, []string{"totp", "email_code"}, ch.Methods)
	require.Equal(t, "CitaMed", ch.Issuer)
	require.Equal(t, "carol@example.com", ch.Account)

	require.True(t, strings.HasPrefix(ch.ProvisioningURI, "otpauth://totp/"))
	require.Contains(t, ch.ProvisioningURI, "secret=JBSWY3DPEHPK3PXP")
	require.Contains(t, ch.ProvisioningURI, "issuer=CitaMed")
	require.Contains(t, ch.ProvisioningURI, "period=30")

	require.True(t, strings.HasPrefix(ch.QRCode, "data:image/png;base64,"))
}

func TestVerifyCode(t *testing.T) {
	env := newTestEnv(t)
	const secret = "JBSWY3DPEHPK3PXP"

	code, err := totp.GenerateCode(secret, env.now)
	require.NoError(t, err)

	require.True(t, env.mfa.VerifyCode(secret, code))
	require.False(t, env.mfa.VerifyCode(secret, "000000"))
	require.False(t, env.mfa.VerifyCode(secret, ""))
	require.False(t, env.mfa.VerifyCode(secret, "not-numeric"))
}

func TestVerifyCodeSkewWindow(t *testing.T) {
	env := newTestEnv(t)
	const secret = "JBSWY3DPEHPK3PXP"

	// A code minted one period ago still verifies with the default skew of 1.
	previous, err := totp.GenerateCode(secret, env.now.Add(-30*time.Second))
	require.NoError(t, err)
	require.True(t, env.mfa.VerifyCode(secret, previous))

	// Two periods out is past the window.
	stale, err := totp.GenerateCode(secret, env.now.Add(-90*time.Second))
	require.NoError(t, err)
	require.False(t, env.mfa.VerifyCode(secret, stale))
}
