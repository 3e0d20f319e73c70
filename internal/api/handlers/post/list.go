package post

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers"
	"Atelie/internal/core/posts"
)

const maxLatestLimit = 50

// ListHandler serves the post retrieval endpoints.
type ListHandler struct {
	service posts.Service
}

// NewListHandler creates a new list handler
func NewListHandler(service posts.Service) *ListHandler {
	return &ListHandler{service: service}
}

// ListResponse wraps a list of posts.
type ListResponse struct {
	Posts []*posts.Post `json:"posts"`
}

// HandleList handles GET /api/v1/posts
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListPosts(r.Context())
	writeList(w, r, result, err)
}

// HandleLatest handles GET /api/v1/posts/latest?limit=N
func (h *ListHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLatestLimit {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "validation",
				"limit must be between 1 and "+strconv.Itoa(maxLatestLimit))
			return
		}
		limit = n
	}
	result, err := h.service.ListLatestPosts(r.Context(), limit)
	writeList(w, r, result, err)
}

// HandleSearch handles GET /api/v1/posts/search?q=
func (h *ListHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	writeList(w, r, result, err)
}

// HandleUserPosts handles GET /api/v1/users/{userID}/posts
func (h *ListHandler) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListUserPosts(r.Context(), chi.URLParam(r, "userID"))
	writeList(w, r, result, err)
}

func writeList(w http.ResponseWriter, r *http.Request, result []*posts.Post, err error) {
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if result == nil {
		result = []*posts.Post{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListResponse{Posts: result})
}
