package web

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all web screen routes
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Get("/", h.FeedHandler)
	r.Get("/search", h.SearchHandler)
	r.Get("/articles", h.ArticlesHandler)
	r.Get("/profile", h.ProfileHandler)

	r.Get("/sign-in", h.SignInPageHandler)
	r.Post("/sign-in", h.SignInSubmitHandler)
	r.Post("/sign-out", h.SignOutHandler)
}
