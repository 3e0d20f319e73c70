package article

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atelie/internal/core/apperr"
	"Atelie/internal/core/articles"
)

type fakeService struct {
	listFunc func(ctx context.Context, filter articles.Filter) ([]*articles.Article, error)
	getFunc  func(ctx context.Context, id string) (*articles.Article, error)
}

func (f *fakeService) ListArticles(ctx context.Context, filter articles.Filter) ([]*articles.Article, error) {
	return f.listFunc(ctx, filter)
}

func (f *fakeService) GetArticle(ctx context.Context, id string) (*articles.Article, error) {
	return f.getFunc(ctx, id)
}

func router(svc articles.Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/articles", h.HandleList)
	r.Get("/articles/{articleID}", h.HandleGet)
	return r
}

func TestHandleList_CategoryFilter(t *testing.T) {
	svc := &fakeService{listFunc: func(_ context.Context, filter articles.Filter) ([]*articles.Article, error) {
		assert.Equal(t, "design", filter.Category)
		return []*articles.Article{{ID: "a1", Category: "design"}}, nil
	}}

	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles?category=design", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "a1", resp.Articles[0].ID)
}

func TestHandleGet_NotFound(t *testing.T) {
	svc := &fakeService{getFunc: func(_ context.Context, id string) (*articles.Article, error) {
		assert.Equal(t, "missing", id)
		return nil, apperr.New(apperr.KindNotFound, "getArticle", "Article not found.")
	}}

	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Article not found.")
}
