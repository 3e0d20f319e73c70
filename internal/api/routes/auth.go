package routes

import (
	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers/auth"
	"Atelie/internal/api/middleware"
)

// RegisterAuthRoutes registers sign-up, sign-in and session endpoints
func RegisterAuthRoutes(r chi.Router, handler *auth.Handler, authMiddleware middleware.AuthMiddleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", handler.HandleSignUp)
		r.Post("/sign-in", handler.HandleSignIn)
		r.Post("/recovery", handler.HandleRecovery)

		r.With(authMiddleware.RequireAuth).Post("/sign-out", handler.HandleSignOut)
		r.With(authMiddleware.RequireAuth).Get("/me", handler.HandleMe)
	})
}
