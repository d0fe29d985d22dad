package http

import (
	"encoding/json"
	"net/http"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/service"
	"github.com/saludware/citamed/pkg/httpx"
	"github.com/saludware/citamed/pkg/slogx"
)

// LoginHandler serves the two-step login flow and the email-code endpoint.
type LoginHandler struct {
	Login *service.LoginService
}

// HandleLogin handles POST /v1/auth/login: the password step.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required.")
		return
	}

	result, err := h.Login.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	resp := loginResponse{Status: string(result.Status)}
	switch result.Status {
	case domain.StatusAuthenticated:
		tokens := newTokenResponse(result.Tokens)
		resp.Tokens = &tokens
	case domain.StatusChallengeIssued:
		resp.Challenge = result.Challenge
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleVerify handles POST /v1/auth/login/verify: the second-factor step.
func (h *LoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.Email == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and code are required.")
		return
	}

	pair, err := h.Login.VerifyLogin(ctx, req.Email, req.Code)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	tokens := newTokenResponse(pair)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Status: string(domain.StatusAuthenticated),
		Tokens: &tokens,
	})
}

// HandleEmailCode handles POST /v1/auth/login/email-code: issues a fresh code
// for an MFA login in progress.
func (h *LoginHandler) HandleEmailCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req emailCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required.")
		return
	}

	if err := h.Login.SendEmailCode(ctx, req.Email); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, ackResponse{Status: "sent"})
}
