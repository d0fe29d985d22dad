package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/saludware/citamed/internal/auth/domain"
	httpapi "github.com/saludware/citamed/internal/auth/http"
	"github.com/saludware/citamed/internal/auth/mailer"
	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/internal/auth/store/drivers/sqlite"
	"github.com/saludware/citamed/pkg/cryptox"
	"github.com/saludware/citamed/pkg/idx"
	"github.com/saludware/citamed/pkg/jwtx"
	"github.com/saludware/citamed/pkg/slogx"
)

const (
	testIssuer   = "citamed-test"
	patientEmail = "ana.garcia@example.com"
	patientPass  = "correct horse battery staple"
)

var pepperOnce sync.Once

// testServer runs the full HTTP stack in-process against in-memory backends.
type testServer struct {
	baseURL string
	store   *sqlite.Store
	cache   *otp.Cache
	redis   *miniredis.Miniredis
	login   *service.LoginService
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	pepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})

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

	keys, err := jwtx.GenerateKeypair("e2e-key", testIssuer)
	require.NoError(t, err)

	tokens := &service.TokenService{
		Signer:   keys,
		Verifier: keys,
		Store:    st,
		Issuer:   testIssuer,
	}
	mfa := &service.MFAService{Store: st, Issuer: "CitaMed"}
	emails := &service.EmailCodeService{Cache: cache, Mailer: &mailer.LogMailer{}}
	login := &service.LoginService{Store: st, Tokens: tokens, MFA: mfa, EmailCodes: emails}

	logger := slogx.New(slogx.Config{Service: "citamed-auth", Env: "dev", Format: "text", Level: "error"})
	router := httpapi.NewRouter("e2e", st, cache, logger)
	router.LoginService = login
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		store:   st,
		cache:   cache,
		redis:   mr,
		login:   login,
	}
}

func (ts *testServer) seedPrincipal(t *testing.T, kind domain.PrincipalKind, email, password string, mfaOn bool) {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	rec := domain.PrincipalRecord{
		ID:       idx.New().String(),
		Email:    email,
		Name:     "Ana Garcia",
		RoleName: string(kind),
		PassHash: hash,
		MFAOn:    mfaOn,
	}
	require.NoError(t, ts.store.Principals().Create(context.Background(), kind, rec))
}

// cachedEmailCode reads the current email code straight out of miniredis.
func (ts *testServer) cachedEmailCode(t *testing.T, email string) string {
	t.Helper()
	code, err := ts.redis.Get("otp:" + email)
	require.NoError(t, err)
	return code
}

func postJSON(t *testing.T, url, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doRequest(t, req)
}

func getJSON(t *testing.T, url, bearer string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return doRequest(t, req)
}

func doRequest(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// tokensFrom pulls the token pair out of a login/verify response body.
func tokensFrom(t *testing.T, body map[string]any) (access, refresh string) {
	t.Helper()

	tokens, ok := body["tokens"].(map[string]any)
	require.True(t, ok, "response should carry tokens: %v", body)

	access, _ = tokens["access_token"].(string)
	refresh, _ = tokens["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}
