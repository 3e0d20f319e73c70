package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atelie/internal/core/orphans"
	"Atelie/internal/core/posts"
)

// setupOrphanTestDB connects to TEST_DATABASE_URL and runs migrations.
func setupOrphanTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, Migrate(db), "Failed to run migrations")

	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM orphaned_files WHERE bucket_id = 'test-bucket'")
		_ = db.Close()
	})
	return db
}

func TestOrphanRepository_RecordAndList(t *testing.T) {
	db := setupOrphanTestDB(t)
	repo := NewOrphanRepository(db)
	ctx := context.Background()

	first := posts.Orphan{BucketID: "test-bucket", FileID: "f1", PostID: "p1", Reason: posts.OrphanPersistFailed}
	second := posts.Orphan{BucketID: "test-bucket", FileID: "f2", PostID: "p2", Reason: posts.OrphanBlobDeleteFailed}

	require.NoError(t, repo.RecordOrphan(ctx, first))
	require.NoError(t, repo.RecordOrphan(ctx, second))
	require.NoError(t, repo.RecordOrphan(ctx, first), "duplicate is ignored")

	records, err := repo.ListOrphans(ctx, 1000)
	require.NoError(t, err)

	var mine []posts.Orphan
	for _, rec := range records {
		if rec.BucketID == "test-bucket" {
			assert.NotZero(t, rec.ID)
			assert.False(t, rec.CreatedAt.IsZero())
			mine = append(mine, rec.Orphan)
		}
	}
	assert.ElementsMatch(t, []posts.Orphan{first, second}, mine)
}

func TestOrphanRepository_PendingAndResolve(t *testing.T) {
	db := setupOrphanTestDB(t)
	repo := NewOrphanRepository(db)
	ctx := context.Background()

	orphan := posts.Orphan{BucketID: "test-bucket", FileID: "f3", PostID: "p3", Reason: posts.OrphanPersistFailed}
	require.NoError(t, repo.RecordOrphan(ctx, orphan))

	pending, err := repo.ListPending(ctx, 1000)
	require.NoError(t, err)
	var id int64
	for _, rec := range pending {
		if rec.Orphan == orphan {
			id = rec.ID
			assert.Nil(t, rec.ResolvedAt)
		}
	}
	require.NotZero(t, id)

	require.NoError(t, repo.MarkResolved(ctx, id))
	assert.ErrorIs(t, repo.MarkResolved(ctx, id), orphans.ErrNotFound)

	pending, err = repo.ListPending(ctx, 1000)
	require.NoError(t, err)
	for _, rec := range pending {
		assert.NotEqual(t, id, rec.ID)
	}
}
