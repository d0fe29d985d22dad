package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/mailer"
	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/internal/auth/store/drivers/sqlite"
	"github.com/saludware/citamed/pkg/cryptox"
	"github.com/saludware/citamed/pkg/idx"
	"github.com/saludware/citamed/pkg/jwtx"
)

var pepperOnce sync.Once

// setTestPepper points the password pepper at a throwaway file. The pepper is
// cached process-wide after first use, so one file serves every test.
func setTestPepper(t *testing.T) {
	t.Helper()
	pepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})
}

// testEnv wires the full service stack against in-memory backends.
type testEnv struct {
	store *sqlite.Store
	cache *otp.Cache
	redis *miniredis.Miniredis

	tokens *TokenService
	mfa    *MFAService
	emails *EmailCodeService
	login  *LoginService

	// now backs every service clock; tests shift it to travel in time.
	now time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setTestPepper(t)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := otp.NewCache(rdb, 5*time.Minute)

	keys, err := jwtx.GenerateKeypair("test-key", "citamed-test")
	require.NoError(t, err)

	env := &testEnv{
		store: st,
		cache: cache,
		redis: mr,
		now:   time.Now(),
	}

	env.tokens = &TokenService{
		Signer:   keys,
		Verifier: keys,
		Store:    st,
		Issuer:   "citamed-test",
		Now:      env.clock,
	}
	env.mfa = &MFAService{
		Store:  st,
		Issuer: "CitaMed",
		Now:    env.clock,
	}
	env.emails = &EmailCodeService{
		Cache:  cache,
		Mailer: &mailer.LogMailer{},
	}
	env.login = &LoginService{
		Store:      st,
		Tokens:     env.tokens,
		MFA:        env.mfa,
		EmailCodes: env.emails,
	}
	return env
}

// seedPrincipal creates a patient with a real Argon2id hash for password.
func seedPrincipal(t *testing.T, env *testEnv, email, password string, mfaOn bool) domain.PrincipalRecord {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	rec := domain.PrincipalRecord{
		ID:       idx.New().String(),
		Email:    email,
		Name:     "Test Principal",
		RoleName: "patient",
		PassHash: hash,
		MFAOn:    mfaOn,
	}
	require.NoError(t, env.store.Principals().Create(context.Background(), domain.KindPatient, rec))
	return rec
}
