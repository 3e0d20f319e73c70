// Package api assembles the HTTP surface used by the mobile client.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"Atelie/internal/api/handlers"
	"Atelie/internal/api/handlers/auth"
	"Atelie/internal/api/middleware"
	"Atelie/internal/api/routes"
	"Atelie/internal/core/articles"
	"Atelie/internal/core/posts"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
)

// Options wires the services behind the router.
type Options struct {
	Users    users.UserService
	Posts    posts.Service
	Articles articles.Service
	Sealer   *session.Sealer
	// Cookies, when set, lets browser sessions authenticate API calls too.
	Cookies             *middleware.CookieStore
	RecoveryRedirectURL string
	AllowedOrigins      []string
	SessionTTL          time.Duration
	MaxThumbnailBytes   int64
	RateLimitPerMinute  int
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter creates and configures a new Chi router.
// Further routes (web screens, dev storage) can be added to the returned mux.
func NewRouter(opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: len(opts.AllowedOrigins) > 0,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authMiddleware := middleware.NewSessionAuth(opts.Sealer, opts.Cookies)
	authHandler := auth.NewHandler(opts.Users, opts.Sealer, opts.SessionTTL, opts.RecoveryRedirectURL)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(middleware.NewRateLimiter(opts.RateLimitPerMinute, time.Minute).Middleware)
		}

		routes.RegisterAuthRoutes(r, authHandler, authMiddleware)
		routes.RegisterPostRoutes(r, opts.Posts, opts.MaxThumbnailBytes, authMiddleware)
		routes.RegisterArticleRoutes(r, opts.Articles)
	})

	return r
}
