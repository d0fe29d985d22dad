package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedPatient(t *testing.T, st *Store, email string) domain.PrincipalRecord {
	t.Helper()

	rec := domain.PrincipalRecord{
		ID:       idx.New().String(),
		Email:    email,
		Name:     "Test Patient",
		RoleName: "patient",
		PassHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	require.NoError(t, st.Principals().Create(context.Background(), domain.KindPatient, rec))
	return rec
}

func TestPrincipalsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := seedPatient(t, st, "alice@example.com")

	got, err := st.Principals().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.PrincipalID())
	require.Equal(t, "alice@example.com", got.LoginKey())
	require.False(t, got.MFAEnabled())
	require.Nil(t, got.MFASecret())

	_, ok := got.(domain.Patient)
	require.True(t, ok, "kind column should materialise a Patient")

	_, err = st.Principals().GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPrincipalsKindDiscrimination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := domain.PrincipalRecord{
		ID:       idx.New().String(),
		Email:    "dr.lopez@example.com",
		Name:     "Dr. López",
		RoleName: "practitioner",
		PassHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
	require.NoError(t, st.Principals().Create(ctx, domain.KindPractitioner, rec))

	got, err := st.Principals().GetByEmail(ctx, "dr.lopez@example.com")
	require.NoError(t, err)
	_, ok := got.(domain.Practitioner)
	require.True(t, ok, "kind column should materialise a Practitioner")
}

func TestPrincipalsMFASecretLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec := seedPatient(t, st, "bob@example.com")

	require.NoError(t, st.Principals().UpdateMFASecret(ctx, rec.ID, "JBSWY3DPEHPK3PXP"))
	require.NoError(t, st.Principals().SetMFAEnabled(ctx, rec.ID, true))

	got, err := st.Principals().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled())
	require.NotNil(t, got.MFASecret())
	require.Equal(t, "JBSWY3DPEHPK3PXP", *got.MFASecret())

	err = st.Principals().UpdateMFASecret(ctx, "nonexistent", "X")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestIssuedTokensLedger(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	mk := func(fp string) domain.IssuedToken {
		return domain.IssuedToken{
			ID:               idx.New().String(),
			PrincipalEmail:   "carol@example.com",
			TokenFingerprint: fp,
		}
	}

	require.NoError(t, st.IssuedTokens().Create(ctx, mk("fp-1")))
	require.NoError(t, st.IssuedTokens().Create(ctx, mk("fp-2")))

	n, err := st.IssuedTokens().CountActive(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Bulk revocation flips both flags but keeps the rows.
	require.NoError(t, st.IssuedTokens().RevokeAllActive(ctx, "carol@example.com"))

	n, err = st.IssuedTokens().CountActive(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Zero(t, n)

	row, err := st.IssuedTokens().GetByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, row.Expired)
	require.True(t, row.Revoked)
	require.False(t, row.Active())

	// Revoking when nothing is active is a no-op, not an error.
	require.NoError(t, st.IssuedTokens().RevokeAllActive(ctx, "carol@example.com"))
}

func TestIssuedTokensLogoutSingleRow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"fp-a", "fp-b"} {
		require.NoError(t, st.IssuedTokens().Create(ctx, domain.IssuedToken{
			ID:               idx.New().String(),
			PrincipalEmail:   "dave@example.com",
			TokenFingerprint: fp,
		}))
	}

	require.NoError(t, st.IssuedTokens().MarkExpiredRevoked(ctx, "fp-a"))

	a, err := st.IssuedTokens().GetByFingerprint(ctx, "fp-a")
	require.NoError(t, err)
	require.False(t, a.Active())

	b, err := st.IssuedTokens().GetByFingerprint(ctx, "fp-b")
	require.NoError(t, err)
	require.True(t, b.Active(), "logout must not touch sibling tokens")

	err = st.IssuedTokens().MarkExpiredRevoked(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.IssuedTokens().Create(ctx, domain.IssuedToken{
			ID:               idx.New().String(),
			PrincipalEmail:   "erin@example.com",
			TokenFingerprint: "fp-tx",
		}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = st.IssuedTokens().GetByFingerprint(ctx, "fp-tx")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExpireCreatedBefore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.IssuedTokens().Create(ctx, domain.IssuedToken{
		ID:               idx.New().String(),
		PrincipalEmail:   "frank@example.com",
		TokenFingerprint: "fp-sweep",
	}))

	// A cutoff in the past touches nothing.
	n, err := st.IssuedTokens().ExpireCreatedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	// A cutoff in the future sweeps the fresh row: expired flips, revoked
	// stays false, the row survives.
	n, err = st.IssuedTokens().ExpireCreatedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	row, err := st.IssuedTokens().GetByFingerprint(ctx, "fp-sweep")
	require.NoError(t, err)
	require.True(t, row.Expired)
	require.False(t, row.Revoked)

	// Already-expired rows are not counted again.
	n, err = st.IssuedTokens().ExpireCreatedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}
