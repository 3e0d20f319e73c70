package routes

import (
	"github.com/go-chi/chi/v5"

	"Atelie/internal/api/handlers/post"
	"Atelie/internal/api/middleware"
	"Atelie/internal/core/posts"
)

// RegisterPostRoutes registers post endpoints on the router
// Reads are public. Creating and deleting require auth.
func RegisterPostRoutes(r chi.Router, service posts.Service, maxThumbBytes int64, authMiddleware middleware.AuthMiddleware) {
	listHandler := post.NewListHandler(service)
	createHandler := post.NewCreateHandler(service, maxThumbBytes)
	deleteHandler := post.NewDeleteHandler(service)

	r.Get("/posts", listHandler.HandleList)
	r.Get("/posts/latest", listHandler.HandleLatest)
	r.Get("/posts/search", listHandler.HandleSearch)
	r.Get("/users/{userID}/posts", listHandler.HandleUserPosts)

	r.With(authMiddleware.RequireAuth).Post("/posts", createHandler.HandleCreate)
	r.With(authMiddleware.RequireAuth).Delete("/posts/{postID}", deleteHandler.HandleDelete)
}
