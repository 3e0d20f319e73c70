package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers"
	"Atelie/internal/api/middleware"
	"Atelie/internal/core/posts"
)

// DeleteHandler handles post deletion requests
type DeleteHandler struct {
	service posts.Service
}

// NewDeleteHandler creates a new handler for deleting posts
func NewDeleteHandler(service posts.Service) *DeleteHandler {
	return &DeleteHandler{
		service: service,
	}
}

// HandleDelete handles DELETE /api/v1/posts/{postID}
// Only the creator may delete a post. Response: 204
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "auth", "Authentication required")
		return
	}

	if err := h.service.DeletePost(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
