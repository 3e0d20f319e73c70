package posts

import "context"

// Service defines the post retrieval and publishing operations.
type Service interface {
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]*Post, error)

	// ListLatestPosts returns the newest limit posts. limit <= 0 uses the default of 7.
	ListLatestPosts(ctx context.Context, limit int) ([]*Post, error)

	// ListUserPosts returns the posts created by userID, newest first.
	ListUserPosts(ctx context.Context, userID string) ([]*Post, error)

	// SearchPosts returns posts whose title full-text matches query.
	// Fails with InvalidQuery when the backend has no full-text index on title.
	SearchPosts(ctx context.Context, query string) ([]*Post, error)

	// CreatePost runs validate -> moderate -> upload -> persist.
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)

	// DeletePost deletes a post created by requesterID, then its thumbnail file.
	DeletePost(ctx context.Context, requesterID, postID string) error
}

// OrphanRecorder keeps track of files left without a post.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, orphan Orphan) error
}
