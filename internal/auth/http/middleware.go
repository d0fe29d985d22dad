package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/pkg/httpx"
	"github.com/saludware/citamed/pkg/slogx"
)

// AuthnMiddleware is the request gate for protected endpoints. It runs the
// full four-check validation (signature, ledger, expiry, principal) and
// injects the resolved principal into the request context.
func AuthnMiddleware(login *service.LoginService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, ok := httpx.BearerToken(r)
			if !ok {
				httpx.WriteBearerError(w, "missing bearer token")
				return
			}

			principal, err := login.ValidateRequest(ctx, token)
			switch {
			case errors.Is(err, service.ErrTokenTampered):
				log.Warn("rejected request with tampered token")
				httpx.WriteBearerError(w, "token verification failed")
				return
			case errors.Is(err, service.ErrTokenExpired):
				httpx.WriteBearerError(w, "token expired or revoked")
				return
			case errors.Is(err, service.ErrInfrastructure):
				log.Error("authn gate unavailable", "err", err)
				httpx.WriteError(w, http.StatusServiceUnavailable,
					"infrastructure_failure", "Authentication backend unavailable.")
				return
			case err != nil:
				log.Error("authn gate failed", "err", err)
				httpx.WriteBearerError(w, "token verification failed")
				return
			}

			ctx = httpx.ContextWithPrincipal(ctx, principal.LoginKey(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFromContext recovers the principal stored by AuthnMiddleware.
func principalFromContext(ctx context.Context) (domain.Principal, bool) {
	v, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		return nil, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}
