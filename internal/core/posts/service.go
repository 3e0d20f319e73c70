package posts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/rs/zerolog/log"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/apperr"
	"Atelie/internal/moderation"
)

const (
	// DefaultLatestLimit is the size of the home screen's latest strip.
	DefaultLatestLimit = 7
	// DefaultMaxThumbnailBytes caps uploaded thumbnails.
	DefaultMaxThumbnailBytes = 10 << 20

	maxTitleLength       = 100
	maxDescriptionLength = 1000
)

// Config holds the backend locations used by the post service.
type Config struct {
	PostsCollectionID string
	BucketID          string
	// Threshold is the moderation score above which an image is rejected. Zero uses the default.
	Threshold float64
	// MaxThumbnailBytes caps the upload size. Zero uses DefaultMaxThumbnailBytes.
	MaxThumbnailBytes int
}

type postService struct {
	databases  appwrite.Databases
	storage    appwrite.Storage
	moderator  moderation.Moderator
	orphans    OrphanRecorder
	collection string
	bucket     string
	threshold  float64
	maxBytes   int
}

// NewPostService creates a post service.
func NewPostService(
	databases appwrite.Databases,
	storage appwrite.Storage,
	moderator moderation.Moderator,
	orphans OrphanRecorder,
	cfg Config,
) Service {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = moderation.DefaultThreshold
	}
	maxBytes := cfg.MaxThumbnailBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxThumbnailBytes
	}
	return &postService{
		databases:  databases,
		storage:    storage,
		moderator:  moderator,
		orphans:    orphans,
		collection: cfg.PostsCollectionID,
		bucket:     cfg.BucketID,
		threshold:  threshold,
		maxBytes:   maxBytes,
	}
}

func (s *postService) ListPosts(ctx context.Context) ([]*Post, error) {
	return s.list(ctx, "listPosts", appwrite.OrderDesc(appwrite.AttrCreatedAt))
}

func (s *postService) ListLatestPosts(ctx context.Context, limit int) ([]*Post, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return s.list(ctx, "listLatestPosts", appwrite.OrderDesc(appwrite.AttrCreatedAt), appwrite.Limit(limit))
}

func (s *postService) ListUserPosts(ctx context.Context, userID string) ([]*Post, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("listUserPosts", map[string]string{"userId": "user id is required"})
	}
	return s.list(ctx, "listUserPosts", appwrite.Equal("creator", userID), appwrite.OrderDesc(appwrite.AttrCreatedAt))
}

func (s *postService) SearchPosts(ctx context.Context, query string) ([]*Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("searchPosts", map[string]string{"query": "search query is required"})
	}
	return s.list(ctx, "searchPosts", appwrite.Search("title", query))
}

func (s *postService) list(ctx context.Context, op string, queries ...appwrite.Query) ([]*Post, error) {
	docs, err := s.databases.ListDocuments(ctx, s.collection, queries...)
	if err != nil {
		log.Debug().Err(err).Str("op", op).Msg("post query failed")
		return nil, mapReadError(op, err)
	}

	out := make([]*Post, 0, len(docs))
	for i := range docs {
		post, err := toPost(&docs[i])
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
		}
		out = append(out, post)
	}
	return out, nil
}

// CreatePost runs the create pipeline. Steps are strictly sequential and the
// first failure ends the attempt.
func (s *postService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	p := pipeline{report: req.Progress}

	p.enter(StageValidating)
	form, err := s.validate(req)
	if err != nil {
		return nil, p.fail(err)
	}

	p.enter(StageModerating)
	scores, err := s.moderator.CheckImage(ctx, moderation.Image{
		Name:     form.thumbnail.Name,
		MimeType: form.thumbnail.MimeType,
		Data:     form.thumbnail.Data,
	})
	if err != nil {
		log.Error().Err(err).Str("stage", StageModerating.String()).Msg("moderation unavailable")
		return nil, p.fail(mapModerationError(err))
	}
	if violations := scores.Violations(s.threshold); len(violations) > 0 {
		log.Info().Str("creator", req.CreatorID).Interface("violations", violations).Msg("image rejected by moderation")
		return nil, p.fail(rejectionError(violations))
	}

	p.enter(StageUploading)
	file, err := s.storage.CreateFile(ctx, s.bucket, appwrite.UniqueID(), appwrite.Upload{
		Name:     form.thumbnail.Name,
		MimeType: form.thumbnail.MimeType,
		Data:     form.thumbnail.Data,
	})
	if err != nil {
		log.Error().Err(err).Str("stage", StageUploading.String()).Msg("thumbnail upload failed")
		return nil, p.fail(apperr.Wrap(apperr.KindUpload, "createPost", "Failed to upload the image: "+causeMessage(err), err))
	}
	thumbnailURL := s.storage.FilePreviewURL(s.bucket, file.ID, appwrite.ThumbnailPreview)
	if thumbnailURL == "" {
		return nil, p.fail(apperr.New(apperr.KindUpload, "createPost", "Failed to build the image preview URL."))
	}

	p.enter(StagePersisting)
	postID := appwrite.UniqueID()
	doc, err := s.databases.CreateDocument(ctx, s.collection, postID, newPostDocument{
		Title:       form.title,
		Thumbnail:   thumbnailURL,
		Description: form.description,
		Creator:     req.CreatorID,
	})
	if err != nil {
		s.recordOrphan(ctx, Orphan{BucketID: s.bucket, FileID: file.ID, PostID: postID, Reason: OrphanPersistFailed}, err)
		return nil, p.fail(apperr.Wrap(apperr.KindPersist, "createPost", "Failed to save the post: "+causeMessage(err), err))
	}

	post := &Post{
		ID:           doc.ID,
		CreatedAt:    doc.CreatedAt,
		Title:        form.title,
		Description:  form.description,
		ThumbnailURL: thumbnailURL,
		CreatorID:    req.CreatorID,
	}
	if post.ID == "" {
		post.ID = postID
	}

	log.Info().Str("post_id", post.ID).Str("file_id", file.ID).Str("creator", req.CreatorID).Msg("post created")
	p.enter(StageDone)
	return post, nil
}

type validForm struct {
	thumbnail   Thumbnail
	title       string
	description string
}

func (s *postService) validate(req CreatePostRequest) (*validForm, error) {
	if req.CreatorID == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "createPost", "You must be signed in to create a post.")
	}

	fields := make(map[string]string)
	form := &validForm{
		title:       strings.TrimSpace(req.Title),
		description: strings.TrimSpace(req.Description),
	}

	switch {
	case form.title == "":
		fields["title"] = "title is required"
	case uniseg.GraphemeClusterCount(form.title) > maxTitleLength:
		fields["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}

	switch {
	case form.description == "":
		fields["description"] = "description is required"
	case uniseg.GraphemeClusterCount(form.description) > maxDescriptionLength:
		fields["description"] = fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)
	}

	if req.Thumbnail == nil || len(req.Thumbnail.Data) == 0 {
		fields["thumbnail"] = "thumbnail is required"
	} else {
		mimeType, ok := normalizeImageType(req.Thumbnail.MimeType, req.Thumbnail.Data)
		switch {
		case !ok:
			fields["thumbnail"] = "thumbnail must be a PNG or JPEG image"
		case len(req.Thumbnail.Data) > s.maxBytes:
			fields["thumbnail"] = fmt.Sprintf("thumbnail must be at most %d MiB", s.maxBytes>>20)
		default:
			form.thumbnail = Thumbnail{Name: req.Thumbnail.Name, MimeType: mimeType, Data: req.Thumbnail.Data}
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("createPost", fields)
	}
	return form, nil
}

// normalizeImageType accepts png, jpg and jpeg. An empty type is sniffed from data.
func normalizeImageType(mimeType string, data []byte) (string, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	switch mimeType {
	case "image/png":
		return mimeType, true
	case "image/jpg", "image/jpeg":
		return "image/jpeg", true
	default:
		return mimeType, false
	}
}

// DeletePost removes the document first, then its file. A file left behind is
// recorded as an orphan and not reported to the requester.
func (s *postService) DeletePost(ctx context.Context, requesterID, postID string) error {
	if requesterID == "" {
		return apperr.New(apperr.KindUnauthorized, "deletePost", "You must be signed in to delete a post.")
	}
	if strings.TrimSpace(postID) == "" {
		return apperr.Validation("deletePost", map[string]string{"postId": "post id is required"})
	}

	doc, err := s.databases.GetDocument(ctx, s.collection, postID)
	if err != nil {
		return mapReadError("deletePost", err)
	}
	var stored postDocument
	if err := doc.Decode(&stored); err != nil {
		return apperr.Wrap(apperr.KindInternal, "deletePost", "", err)
	}

	if stored.Creator.ID != requesterID {
		log.Warn().Str("post_id", postID).Str("requester", requesterID).Str("creator", stored.Creator.ID).
			Msg("delete refused: requester is not the creator")
		return apperr.Wrap(apperr.KindUnauthorized, "deletePost", msgNotOwner, ErrNotOwner)
	}

	if err := s.databases.DeleteDocument(ctx, s.collection, postID); err != nil {
		return mapReadError("deletePost", err)
	}

	fileID := appwrite.FileIDFromURL(stored.Thumbnail)
	if fileID == "" {
		log.Info().Str("post_id", postID).Msg("post deleted")
		return nil
	}

	if err := s.storage.DeleteFile(ctx, s.bucket, fileID); err != nil {
		if errors.Is(err, appwrite.ErrNotFound) {
			log.Info().Str("post_id", postID).Str("file_id", fileID).Msg("post deleted, file already gone")
			return nil
		}
		s.recordOrphan(ctx, Orphan{BucketID: s.bucket, FileID: fileID, PostID: postID, Reason: OrphanBlobDeleteFailed}, err)
		return nil
	}

	log.Info().Str("post_id", postID).Str("file_id", fileID).Msg("post deleted")
	return nil
}

func (s *postService) recordOrphan(ctx context.Context, orphan Orphan, cause error) {
	log.Warn().Err(cause).
		Bool("orphan", true).
		Str("bucket_id", orphan.BucketID).
		Str("file_id", orphan.FileID).
		Str("post_id", orphan.PostID).
		Str("reason", orphan.Reason).
		Msg("file left without a post")

	if s.orphans == nil {
		return
	}
	// The request may already be done; the ledger write must still happen.
	if err := s.orphans.RecordOrphan(context.WithoutCancel(ctx), orphan); err != nil {
		log.Error().Err(err).Str("file_id", orphan.FileID).Msg("failed to record orphaned file")
	}
}

func toPost(doc *appwrite.Document) (*Post, error) {
	var stored postDocument
	if err := doc.Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode post %q: %w", doc.ID, err)
	}
	post := &Post{
		ID:           doc.ID,
		CreatedAt:    doc.CreatedAt,
		Title:        stored.Title,
		Description:  stored.Description,
		ThumbnailURL: stored.Thumbnail,
		CreatorID:    stored.Creator.ID,
	}
	if stored.Creator.Expanded {
		post.Creator = &Creator{
			ID:        stored.Creator.ID,
			Username:  stored.Creator.Username,
			AvatarURL: stored.Creator.Avatar,
		}
	}
	return post, nil
}

// pipeline reports stage transitions of one submission.
type pipeline struct {
	report func(Transition)
}

func (p pipeline) enter(stage Stage) {
	if p.report != nil {
		p.report(Transition{Stage: stage})
	}
}

func (p pipeline) fail(err error) error {
	if p.report != nil {
		p.report(Transition{Stage: StageFailed, Err: err})
	}
	return err
}
