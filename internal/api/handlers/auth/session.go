package auth

import (
	"net/http"

	"Atelie/internal/api/handlers"
	"Atelie/internal/api/middleware"
)

// HandleSignOut handles POST /api/v1/auth/sign-out. Requires auth.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r)
	if !ok {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "auth", "Authentication required")
		return
	}

	if err := h.service.SignOut(r.Context(), sess); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /api/v1/auth/me. Requires auth.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r)
	if !ok {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "auth", "Authentication required")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), sess)
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, user)
}
