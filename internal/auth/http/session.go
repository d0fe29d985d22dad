package http

import (
	"encoding/json"
	"net/http"

	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/pkg/httpx"
	"github.com/saludware/citamed/pkg/slogx"
)

// SessionHandler serves the authenticated session endpoints: refresh, logout
// and userinfo.
type SessionHandler struct {
	Login *service.LoginService
}

// HandleRefresh handles POST /v1/auth/refresh. Unauthenticated by design: the
// refresh token itself is the credential.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required.")
		return
	}

	pair, err := h.Login.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

// HandleLogout handles POST /v1/auth/logout. Retires the presented access
// token; behind the authn gate, so the token is known-valid when it arrives.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}

	if err := h.Login.Logout(ctx, token); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ackResponse{Status: "logged_out"})
}

// HandleUserinfo handles GET /v1/auth/userinfo.
func (h *SessionHandler) HandleUserinfo(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, "missing authentication")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userinfoResponse{
		Sub:        p.LoginKey(),
		Name:       p.DisplayName(),
		Role:       p.Role(),
		MFAEnabled: p.MFAEnabled(),
	})
}
