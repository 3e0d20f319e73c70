package routes

import (
	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers/article"
	"Atelie/internal/core/articles"
)

// RegisterArticleRoutes registers the public article endpoints
func RegisterArticleRoutes(r chi.Router, service articles.Service) {
	handler := article.NewHandler(service)

	r.Get("/articles", handler.HandleList)
	r.Get("/articles/{articleID}", handler.HandleGet)
}
