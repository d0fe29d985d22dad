package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/httpx"
	"github.com/saludware/citamed/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache *otp.Cache

	LoginService *service.LoginService
}

func NewRouter(buildVersion string, st store.Store, cache *otp.Cache, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		cache:        cache,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerSession()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{Login: r.LoginService}

	// Credential and code endpoints carry the strict limit: these are the
	// brute-force surface.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login/email-code",
		httpx.Chain(http.HandlerFunc(h.HandleEmailCode),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerSession() {
	h := &SessionHandler{Login: r.LoginService}

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			AuthnMiddleware(r.LoginService),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/auth/userinfo",
		httpx.Chain(http.HandlerFunc(h.HandleUserinfo),
			AuthnMiddleware(r.LoginService),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache))
}
