package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/auth"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/queue"
)

type AuthHandler struct {
	provider auth.Provider
	orgs     *org.Service
	secret   string
	tokenTTL time.Duration
	queue    *queue.Client
}

func NewAuthHandler(provider auth.Provider, orgs *org.Service, secret string, tokenTTL time.Duration, qc *queue.Client) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		orgs:     orgs,
		secret:   secret,
		tokenTTL: tokenTTL,
		queue:    qc,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	email, err := h.provider.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.orgs.GetUserByEmail(r.Context(), email)
	if err != nil {
		// Same response as a bad password: the login surface confirms
		// nothing about account existence.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "account deactivated")
		return
	}

	token, err := auth.IssueToken([]byte(h.secret), user, h.tokenTTL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Best effort: a stale last_login_at never fails a login.
	if err := h.queue.EnqueueLastSeen(queue.LastSeenPayload{
		UserID: user.ID.String(),
		SeenAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		slog.Warn("last-seen dispatch failed", "user_id", user.ID, "error", err)
	}

	dispatchAudit(h.queue, user, audit.ActionLogin, "user", user.ID.String(), nil, r)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
