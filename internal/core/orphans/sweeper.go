// Package orphans cleans up stored files recorded as orphans by the post
// pipeline: files uploaded for a post that was never persisted, and files
// left behind when a post was deleted.
package orphans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/posts"
)

// ErrNotFound is returned by Store.MarkResolved for unknown or already resolved rows.
var ErrNotFound = errors.New("orphan not found")

// Record is a ledger row.
type Record struct {
	CreatedAt  time.Time
	ResolvedAt *time.Time
	posts.Orphan
	ID int64
}

// Store is the orphan ledger.
type Store interface {
	ListPending(ctx context.Context, limit int) ([]Record, error)
	MarkResolved(ctx context.Context, id int64) error
}

// History lists every ledger row, resolved or not.
type History interface {
	ListOrphans(ctx context.Context, limit int) ([]Record, error)
}

// Ledger is a Store that can also report its history.
type Ledger interface {
	Store
	History
}

// Inspect returns up to limit rows without touching storage: the pending
// rows oldest first, or with all every row newest first.
func Inspect(ctx context.Context, ledger Ledger, all bool, limit int) ([]Record, error) {
	if all {
		records, err := ledger.ListOrphans(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list orphans: %w", err)
		}
		return records, nil
	}
	records, err := ledger.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orphans: %w", err)
	}
	return records, nil
}

// Result summarizes one sweep.
type Result struct {
	Deleted     int
	AlreadyGone int
	Failed      int
}

// Sweeper deletes orphaned files and resolves their ledger rows.
type Sweeper struct {
	store   Store
	storage appwrite.Storage
}

// NewSweeper creates a sweeper.
func NewSweeper(store Store, storage appwrite.Storage) *Sweeper {
	return &Sweeper{store: store, storage: storage}
}

// Sweep processes up to limit pending rows, oldest first. A file that cannot
// be deleted stays pending for the next sweep; only ledger errors abort.
func (s *Sweeper) Sweep(ctx context.Context, limit int) (Result, error) {
	var result Result

	pending, err := s.store.ListPending(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("failed to list pending orphans: %w", err)
	}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logger := log.With().Int64("orphan_id", rec.ID).Str("bucket_id", rec.BucketID).
			Str("file_id", rec.FileID).Str("reason", rec.Reason).Logger()

		err := s.storage.DeleteFile(ctx, rec.BucketID, rec.FileID)
		switch {
		case err == nil:
			result.Deleted++
		case errors.Is(err, appwrite.ErrNotFound):
			result.AlreadyGone++
		default:
			result.Failed++
			logger.Warn().Err(err).Msg("orphan file delete failed, will retry")
			continue
		}

		if err := s.store.MarkResolved(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return result, fmt.Errorf("failed to resolve orphan %d: %w", rec.ID, err)
		}
		logger.Info().Msg("orphan resolved")
	}

	return result, nil
}
