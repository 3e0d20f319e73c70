// Package articles serves the articles tab and article detail screen.
package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/apperr"
)

// Service reads articles.
type Service interface {
	ListArticles(ctx context.Context, filter Filter) ([]*Article, error)
	GetArticle(ctx context.Context, id string) (*Article, error)
}

type articleService struct {
	databases  appwrite.Databases
	collection string
}

// NewArticleService creates an article service reading collectionID.
func NewArticleService(databases appwrite.Databases, collectionID string) Service {
	return &articleService{databases: databases, collection: collectionID}
}

// ListArticles returns articles newest first, optionally in one category.
func (s *articleService) ListArticles(ctx context.Context, filter Filter) ([]*Article, error) {
	var queries []appwrite.Query
	if category := strings.TrimSpace(filter.Category); category != "" {
		queries = append(queries, appwrite.Equal("category", category))
	}
	queries = append(queries, appwrite.OrderDesc(appwrite.AttrCreatedAt))

	docs, err := s.databases.ListDocuments(ctx, s.collection, queries...)
	if err != nil {
		return nil, mapError("listArticles", err)
	}

	out := make([]*Article, 0, len(docs))
	for i := range docs {
		article, err := toArticle(&docs[i])
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "listArticles", "", err)
		}
		out = append(out, article)
	}
	return out, nil
}

// GetArticle returns a single article.
func (s *articleService) GetArticle(ctx context.Context, id string) (*Article, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("getArticle", map[string]string{"id": "article id is required"})
	}
	doc, err := s.databases.GetDocument(ctx, s.collection, id)
	if err != nil {
		return nil, mapError("getArticle", err)
	}
	article, err := toArticle(doc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "getArticle", "", err)
	}
	return article, nil
}

func mapError(op string, err error) error {
	var apiErr *appwrite.APIError
	switch {
	case errors.Is(err, appwrite.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "Article not found.", err)
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apperr.Wrap(apperr.KindRemoteUnavailable, op, apiErr.Message, err)
	default:
		return apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
	}
}

func toArticle(doc *appwrite.Document) (*Article, error) {
	var stored articleDocument
	if err := doc.Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode article %q: %w", doc.ID, err)
	}
	return &Article{
		ID:           doc.ID,
		CreatedAt:    doc.CreatedAt,
		Title:        stored.Title,
		Introduction: stored.Introduction,
		Content:      stored.Content,
		Category:     stored.Category,
		ThumbnailURL: stored.Thumbnail,
		ReadTime:     stored.ReadTime,
	}, nil
}
