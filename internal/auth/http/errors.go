package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/pkg/httpx"
)

// writeServiceError maps the service error taxonomy onto HTTP. Expected
// failures answer 401 without detail; infrastructure failures answer 503 so
// clients know a retry can help.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, service.ErrInvalidOTP):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_otp", "Verification code is incorrect or expired.")
	case errors.Is(err, service.ErrTokenTampered), errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "Token is invalid or expired.")
	case errors.Is(err, service.ErrInfrastructure):
		log.Error("infrastructure failure", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable,
			"infrastructure_failure", "A backend dependency is unavailable. Please retry.")
	default:
		log.Error("unhandled service error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "An unexpected error occurred.")
	}
}
