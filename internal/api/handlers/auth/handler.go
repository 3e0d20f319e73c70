// Package auth serves the sign-up, sign-in and session endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"Atelie/internal/api/handlers"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
)

const maxAuthBodyBytes = 16 * 1024

// Handler handles auth requests
type Handler struct {
	service     users.UserService
	sealer      *session.Sealer
	redirectURL string
	sessionTTL  time.Duration
}

// NewHandler creates a new auth handler. Issued tokens expire after at most sessionTTL.
func NewHandler(service users.UserService, sealer *session.Sealer, sessionTTL time.Duration, recoveryRedirectURL string) *Handler {
	return &Handler{
		service:     service,
		sealer:      sealer,
		sessionTTL:  sessionTTL,
		redirectURL: recoveryRedirectURL,
	}
}

// TokenResponse is returned by sign-up and sign-in.
type TokenResponse struct {
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *users.User `json:"user"`
	Token     string      `json:"token"`
}

// decodeBody decodes a size-limited JSON body, writing the error response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.WriteError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "validation",
				"Request body too large")
			return false
		}
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "validation", "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, status int, result *users.AuthResult) {
	token, expiresAt, err := h.sealer.Issue(result.Session, h.sessionTTL)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, status, TokenResponse{Token: token, ExpiresAt: expiresAt, User: result.User})
}
