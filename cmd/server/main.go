package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"Atelie/internal/api"
	"Atelie/internal/api/middleware"
	"Atelie/internal/appwrite"
	"Atelie/internal/appwrite/memory"
	"Atelie/internal/config"
	"Atelie/internal/core/articles"
	"Atelie/internal/core/posts"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
	"Atelie/internal/db/postgres"
	"Atelie/internal/logger"
	"Atelie/internal/moderation"
	"Atelie/internal/web"
)

// backend is the set of backend contracts the services are built on.
type backend struct {
	accounts  appwrite.Accounts
	databases appwrite.Databases
	storage   appwrite.Storage
	avatars   appwrite.Avatars
	// files serves stored files locally; only set for the in-process backend.
	files http.Handler
	close func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	if cfg.Backend == config.BackendMemory {
		generateDevSecrets(cfg)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	be, err := newBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to initialize backend")
	}
	defer func() { _ = be.close() }()

	moderator, err := newModerator(cfg.Moderation)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize moderation client")
	}

	var orphanRecorder posts.OrphanRecorder
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		orphanRecorder = postgres.NewOrphanRepository(db)
		log.Info().Msg("orphan ledger enabled")
	} else {
		log.Warn().Msg("DATABASE_URL not set, orphaned files will only be logged")
	}

	sealer, err := session.NewSealerFromBase64(cfg.SessionSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SESSION_SECRET")
	}
	cookies, err := middleware.NewCookieStore(cfg.CookieSecret, strings.HasPrefix(cfg.PublicURL, "https://"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid COOKIE_SECRET")
	}

	userService := users.NewUserService(be.accounts, be.databases, be.avatars, cfg.Appwrite.UsersCollectionID)
	postService := posts.NewPostService(be.databases, be.storage, moderator, orphanRecorder, posts.Config{
		PostsCollectionID: cfg.Appwrite.PostsCollectionID,
		BucketID:          cfg.Appwrite.StorageID,
		Threshold:         cfg.Moderation.Threshold,
	})
	articleService := articles.NewArticleService(be.databases, cfg.Appwrite.ArticlesCollectionID)

	router := api.NewRouter(api.Options{
		Users:               userService,
		Posts:               postService,
		Articles:            articleService,
		Sealer:              sealer,
		Cookies:             cookies,
		SessionTTL:          cfg.SessionTTL,
		RecoveryRedirectURL: cfg.RecoveryRedirectURL,
		AllowedOrigins:      allowedOrigins(cfg.CORSAllowedOrigins),
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		TrustProxy:          cfg.TrustProxy,
	})

	templates, err := web.NewTemplates()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load web templates")
	}
	web.RegisterRoutes(router, web.NewHandlers(templates, postService, articleService, userService, sealer, cookies, cfg.SessionTTL))

	if be.files != nil {
		router.Mount("/dev/v1", be.files)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("backend", cfg.Backend).Str("public_url", cfg.PublicURL).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exiting")
}

func newBackend(cfg *config.Config) (*backend, error) {
	if cfg.Backend == config.BackendMemory {
		mem, err := memory.New(memory.Options{
			Endpoint:        cfg.Appwrite.Endpoint,
			ProjectID:       cfg.Appwrite.ProjectID,
			FulltextIndexes: map[string][]string{cfg.Appwrite.PostsCollectionID: {"title"}},
			Relations: map[string]map[string]string{
				cfg.Appwrite.PostsCollectionID: {"creator": cfg.Appwrite.UsersCollectionID},
			},
		})
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("using the in-process backend, data is lost on restart")
		return &backend{accounts: mem, databases: mem, storage: mem, avatars: mem, files: mem.FileHandler(), close: mem.Close}, nil
	}

	client, err := appwrite.NewClient(appwrite.Config{
		Endpoint:   cfg.Appwrite.Endpoint,
		ProjectID:  cfg.Appwrite.ProjectID,
		APIKey:     cfg.Appwrite.APIKey,
		DatabaseID: cfg.Appwrite.DatabaseID,
	})
	if err != nil {
		return nil, err
	}
	return &backend{
		accounts:  client,
		databases: client,
		storage:   client,
		avatars:   client,
		close:     func() error { return nil },
	}, nil
}

func newModerator(cfg config.ModerationConfig) (moderation.Moderator, error) {
	if cfg.Disabled {
		log.Warn().Msg("MODERATION_DISABLED=true, images are published without moderation")
		return moderation.Disabled{}, nil
	}
	return moderation.NewClient(moderation.Config{
		Endpoint:  cfg.Endpoint,
		APIUser:   cfg.APIUser,
		APISecret: cfg.APISecret,
	})
}

// generateDevSecrets fills in missing secrets with random values for local runs.
// Sessions do not survive a restart.
func generateDevSecrets(cfg *config.Config) {
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = base64.StdEncoding.EncodeToString(randomBytes(session.KeySize))
		log.Warn().Msg("SESSION_SECRET not set, using an ephemeral key")
	}
	if cfg.CookieSecret == "" {
		cfg.CookieSecret = base64.RawURLEncoding.EncodeToString(randomBytes(middleware.MinCookieSecretLength))
		log.Warn().Msg("COOKIE_SECRET not set, using an ephemeral key")
	}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msg("failed to read random bytes")
	}
	return b
}

// allowedOrigins treats a lone "*" as no explicit list.
func allowedOrigins(origins []string) []string {
	if len(origins) == 1 && origins[0] == "*" {
		return nil
	}
	return origins
}
