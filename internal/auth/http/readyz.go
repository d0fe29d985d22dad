package http

import (
	"net/http"
	"time"

	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/internal/auth/store"
	"github.com/saludware/citamed/pkg/httpx"
)

// ReadyzHandler is the readiness probe: checks the database and the OTP cache
// and answers 503 if either is down.
func ReadyzHandler(startTime time.Time, version string, st store.Store, cache *otp.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]string{
			"database":  "ok",
			"otp_cache": "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := cache.Ping(ctx); err != nil {
			checks["otp_cache"] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, healthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
