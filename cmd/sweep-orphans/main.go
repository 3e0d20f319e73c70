// cmd/sweep-orphans/main.go
// Deletes stored files recorded in the orphan ledger and resolves their rows
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"Atelie/internal/appwrite"
	"Atelie/internal/config"
	"Atelie/internal/core/orphans"
	"Atelie/internal/db/postgres"
	"Atelie/internal/logger"
)

func main() {
	limit := flag.Int("limit", 100, "maximum number of pending orphans to process")
	dryRun := flag.Bool("dry-run", false, "list pending orphans without deleting anything")
	all := flag.Bool("all", false, "with -dry-run, list resolved orphans too, newest first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	if cfg.Backend != config.BackendAppwrite {
		log.Fatal().Str("backend", cfg.Backend).Msg("sweeping requires BACKEND=appwrite")
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	repo := postgres.NewOrphanRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		records, err := orphans.Inspect(ctx, repo, *all, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("dry run failed")
		}
		for _, rec := range records {
			event := log.Info().Int64("orphan_id", rec.ID).Str("bucket_id", rec.BucketID).Str("file_id", rec.FileID).
				Str("post_id", rec.PostID).Str("reason", rec.Reason).Time("created_at", rec.CreatedAt)
			if rec.ResolvedAt != nil {
				event = event.Time("resolved_at", *rec.ResolvedAt)
			}
			event.Msg("orphan")
		}
		log.Info().Int("count", len(records)).Bool("all", *all).Msg("dry run complete")
		return
	}

	client, err := appwrite.NewClient(appwrite.Config{
		Endpoint:   cfg.Appwrite.Endpoint,
		ProjectID:  cfg.Appwrite.ProjectID,
		APIKey:     cfg.Appwrite.APIKey,
		DatabaseID: cfg.Appwrite.DatabaseID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	result, err := orphans.NewSweeper(repo, client).Sweep(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Int("deleted", result.Deleted).Msg("sweep aborted")
	}
	log.Info().Int("deleted", result.Deleted).Int("already_gone", result.AlreadyGone).
		Int("failed", result.Failed).Msg("sweep complete")
}
