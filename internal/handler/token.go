package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/store"
)

// TokenHandler exchanges a subscription's API secret for a bearer token.
type TokenHandler struct {
	subscriptions *store.SubscriptionStore
	tokens        *auth.Tokens
	logger        *slog.Logger
}

func NewTokenHandler(ss *store.SubscriptionStore, tokens *auth.Tokens, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{subscriptions: ss, tokens: tokens, logger: logger}
}

type tokenRequest struct {
	SubscriptionID int64  `json:"subscription_id"`
	Secret         string `json:"secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.SubscriptionID <= 0 || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "subscription_id and secret are required")
		return
	}

	sub, err := h.subscriptions.Verify(r.Context(), req.SubscriptionID, req.Secret)
	if err != nil {
		h.logger.Error("verify subscription", "subscription_id", req.SubscriptionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify credentials")
		return
	}
	if sub == nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(sub.ID)
	if err != nil {
		h.logger.Error("issue token", "subscription_id", sub.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
	})
}
