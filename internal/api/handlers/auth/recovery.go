package auth

import (
	"net/http"

	"Atelie/internal/api/handlers"
)

// RecoveryRequest is the body of POST /api/v1/auth/recovery.
type RecoveryRequest struct {
	Email string `json:"email"`
}

// HandleRecovery sends a password recovery email.
// Response: 202 with an empty body
func (h *Handler) HandleRecovery(w http.ResponseWriter, r *http.Request) {
	var req RecoveryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordRecovery(r.Context(), req.Email, h.redirectURL); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
