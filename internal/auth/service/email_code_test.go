package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saludware/citamed/internal/auth/domain"
)

func TestEmailCodeSendAndVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{
		Email: "dan@example.com",
		Name:  "Dan",
	}}

	require.NoError(t, env.emails.Send(ctx, p))

	// The cache write is synchronous even though delivery is async.
	code, err := env.cache.Get(ctx, "dan@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	ok, err := env.emails.Verify(ctx, "dan@example.com", code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = env.emails.Verify(ctx, "dan@example.com", "000000")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmailCodeVerifyWithoutIssue(t *testing.T) {
	env := newTestEnv(t)

	ok, err := env.emails.Verify(context.Background(), "nobody@example.com", "123456")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmailCodeInfrastructureFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "erin@example.com"}}

	env.redis.Close()

	err := env.emails.Send(ctx, p)
	require.ErrorIs(t, err, ErrInfrastructure)

	_, err = env.emails.Verify(ctx, "erin@example.com", "123456")
	require.ErrorIs(t, err, ErrInfrastructure, "an outage must not read as a wrong code")
}

func TestEmailCodeInvalidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := domain.Patient{PrincipalRecord: domain.PrincipalRecord{Email: "frank@example.com"}}

	require.NoError(t, env.emails.Send(ctx, p))
	code, err := env.cache.Get(ctx, "frank@example.com")
	require.NoError(t, err)

	require.NoError(t, env.emails.Invalidate(ctx, "frank@example.com"))

	ok, err := env.emails.Verify(ctx, "frank@example.com", code)
	require.NoError(t, err)
	require.False(t, ok)
}
