package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/pkg/cryptox"
)

func TestIssueAccessTokenCarriesSubjectAndRole(t *testing.T) {
	env := newTestEnv(t)
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{
		Email:    "alice@example.com",
		RoleName: "patient",
	}}

	token, err := env.tokens.IssueAccessToken(p)
	require.NoError(t, err)

	subject, err := env.tokens.Subject(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", subject)

	claims, err := env.tokens.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "patient", claims.Role)
	require.Equal(t, "citamed-test", claims.Issuer)
}

func TestValidateJudgesSubjectAndExpiryOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "alice@example.com"}}
	bob := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "bob@example.com"}}

	token, err := env.tokens.IssueAccessToken(alice)
	require.NoError(t, err)

	require.True(t, env.tokens.Validate(token, alice))
	require.False(t, env.tokens.Validate(token, bob), "subject mismatch must fail")

	env.now = env.now.Add(env.tokens.accessTTL() + time.Second)
	require.False(t, env.tokens.Validate(token, alice), "embedded expiry must be strictly in the future")
}

func TestSubjectSurvivesExpiryButNotTampering(t *testing.T) {
	env := newTestEnv(t)
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "alice@example.com"}}

	token, err := env.tokens.IssueAccessToken(p)
	require.NoError(t, err)

	// Expired tokens still reveal who they belonged to.
	env.now = env.now.Add(24 * time.Hour)
	subject, err := env.tokens.Subject(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", subject)

	_, err = env.tokens.Subject(token + "x")
	require.ErrorIs(t, err, ErrTokenTampered)

	_, err = env.tokens.Subject("not-a-jwt")
	require.ErrorIs(t, err, ErrTokenTampered)
}

func TestIssuePairEnforcesSingleActiveToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := seedPrincipal(t, env, "alice@example.com", "s3cret!", false)
	p := domain.Patient{PrincipalRecord: rec}

	first, err := env.tokens.IssuePair(ctx, p)
	require.NoError(t, err)
	require.Equal(t, "Bearer", first.TokenType)

	second, err := env.tokens.IssuePair(ctx, p)
	require.NoError(t, err)

	count, err := env.store.IssuedTokens().CountActive(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, 1, count, "reissue must retire the prior token")

	active, err := env.tokens.IsActive(ctx, first.AccessToken)
	require.NoError(t, err)
	require.False(t, active)

	active, err = env.tokens.IsActive(ctx, second.AccessToken)
	require.NoError(t, err)
	require.True(t, active)
}

func TestIsActiveFailsClosedForUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "alice@example.com"}}

	// Signed by us but never recorded in the ledger.
	token, err := env.tokens.IssueAccessToken(p)
	require.NoError(t, err)

	active, err := env.tokens.IsActive(context.Background(), token)
	require.NoError(t, err)
	require.False(t, active)
}

func TestRevokeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rec := seedPrincipal(t, env, "alice@example.com", "s3cret!", false)

	pair, err := env.tokens.IssuePair(ctx, domain.Patient{PrincipalRecord: rec})
	require.NoError(t, err)

	require.NoError(t, env.tokens.Revoke(ctx, pair.AccessToken))
	require.NoError(t, env.tokens.Revoke(ctx, pair.AccessToken), "second revoke is a no-op")
	require.NoError(t, env.tokens.Revoke(ctx, "never-issued"), "unknown token revokes quietly")

	// The row survives revocation with both flags flipped.
	row, err := env.store.IssuedTokens().GetByFingerprint(ctx, cryptox.FingerprintToken(pair.AccessToken))
	require.NoError(t, err)
	require.True(t, row.Expired)
	require.True(t, row.Revoked)
}
