package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"Atelie/internal/core/orphans"
	"Atelie/internal/core/posts"
)

// OrphanRepository is the orphaned file ledger.
type OrphanRepository struct {
	db *sql.DB
}

var (
	_ posts.OrphanRecorder = (*OrphanRepository)(nil)
	_ orphans.Ledger       = (*OrphanRepository)(nil)
)

// NewOrphanRepository creates the ledger over db.
func NewOrphanRepository(db *sql.DB) *OrphanRepository {
	return &OrphanRepository{db: db}
}

// RecordOrphan inserts a ledger row. Recording the same file twice for the same reason is a no-op.
func (r *OrphanRepository) RecordOrphan(ctx context.Context, orphan posts.Orphan) error {
	query := `
		INSERT INTO orphaned_files (bucket_id, file_id, post_id, reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bucket_id, file_id, reason) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, orphan.BucketID, orphan.FileID, orphan.PostID, orphan.Reason); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("failed to record orphan (%s): %w", pqErr.Code.Name(), err)
		}
		return fmt.Errorf("failed to record orphan: %w", err)
	}
	return nil
}

// ListOrphans returns up to limit rows, newest first, resolved or not.
func (r *OrphanRepository) ListOrphans(ctx context.Context, limit int) ([]orphans.Record, error) {
	return r.list(ctx, `
		SELECT id, bucket_id, file_id, post_id, reason, created_at, resolved_at
		FROM orphaned_files
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
}

// ListPending returns up to limit unresolved rows, oldest first.
func (r *OrphanRepository) ListPending(ctx context.Context, limit int) ([]orphans.Record, error) {
	return r.list(ctx, `
		SELECT id, bucket_id, file_id, post_id, reason, created_at, resolved_at
		FROM orphaned_files
		WHERE resolved_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, limit)
}

// MarkResolved records that the file behind row id is gone.
func (r *OrphanRepository) MarkResolved(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orphaned_files SET resolved_at = NOW() WHERE id = $1 AND resolved_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve orphan %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check resolve result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("orphan %d: %w", id, orphans.ErrNotFound)
	}
	return nil
}

func (r *OrphanRepository) list(ctx context.Context, query string, limit int) ([]orphans.Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []orphans.Record
	for rows.Next() {
		var (
			rec        orphans.Record
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.BucketID, &rec.FileID, &rec.PostID, &rec.Reason, &rec.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan orphan: %w", err)
		}
		if resolvedAt.Valid {
			rec.ResolvedAt = &resolvedAt.Time
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orphans: %w", err)
	}
	return out, nil
}
