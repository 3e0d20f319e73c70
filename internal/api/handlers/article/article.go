// Package article serves the article list and detail endpoints.
package article

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers"
	"Atelie/internal/core/articles"
)

// Handler handles article requests
type Handler struct {
	service articles.Service
}

// NewHandler creates a new article handler
func NewHandler(service articles.Service) *Handler {
	return &Handler{service: service}
}

// ListResponse wraps a list of articles.
type ListResponse struct {
	Articles []*articles.Article `json:"articles"`
}

// HandleList handles GET /api/v1/articles?category=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListArticles(r.Context(), articles.Filter{Category: r.URL.Query().Get("category")})
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	if result == nil {
		result = []*articles.Article{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListResponse{Articles: result})
}

// HandleGet handles GET /api/v1/articles/{articleID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.GetArticle(r.Context(), chi.URLParam(r, "articleID"))
	if err != nil {
		handlers.WriteServiceError(w, r, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, article)
}
