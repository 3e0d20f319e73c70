package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atelie/internal/api/handlers/auth"
	"Atelie/internal/api/handlers/post"
	"Atelie/internal/appwrite"
	"Atelie/internal/appwrite/memory"
	"Atelie/internal/core/articles"
	"Atelie/internal/core/posts"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
	"Atelie/internal/moderation"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Backend) {
	t.Helper()
	backend, err := memory.New(memory.Options{
		Endpoint:        "http://files.test/v1",
		ProjectID:       "local",
		FulltextIndexes: map[string][]string{"posts": {"title"}},
		Relations:       map[string]map[string]string{"posts": {"creator": "users"}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	sealer, err := session.NewSealer(bytes.Repeat([]byte{5}, session.KeySize))
	require.NoError(t, err)

	router := NewRouter(Options{
		Users:              users.NewUserService(backend, backend, backend, "users"),
		Posts:              posts.NewPostService(backend, backend, moderation.Disabled{}, nil, posts.Config{PostsCollectionID: "posts", BucketID: "media"}),
		Articles:           articles.NewArticleService(backend, "articles"),
		Sealer:             sealer,
		SessionTTL:         time.Hour,
		RateLimitPerMinute: 1000,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, backend
}

func signUp(t *testing.T, srv *httptest.Server, email, username string) auth.TokenResponse {
	t.Helper()
	body, _ := json.Marshal(users.SignUpRequest{Email: email, Password: "password123", Username: username})
	resp, err := http.Post(srv.URL+"/api/v1/auth/sign-up", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var token auth.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.Token)
	return token
}

func createPost(t *testing.T, srv *httptest.Server, token, title string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", "a description"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="thumbnail"; filename="t.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nimage-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/posts", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getPosts(t *testing.T, url string) []*posts.Post {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list post.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	return list.Posts
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublishFlow(t *testing.T) {
	srv, backend := newTestServer(t)
	ana := signUp(t, srv, "ana@example.com", "ana")
	bo := signUp(t, srv, "bo@example.com", "bo")

	resp := createPost(t, srv, ana.Token, "Sunset over the bay")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created post.CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, []string{"validating", "moderating", "uploading", "persisting", "done"}, created.Stages)

	all := getPosts(t, srv.URL+"/api/v1/posts")
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Creator)
	assert.Equal(t, "ana", all[0].Creator.Username)

	found := getPosts(t, srv.URL+"/api/v1/posts/search?q=suns")
	assert.Len(t, found, 1)
	assert.Len(t, getPosts(t, srv.URL+"/api/v1/users/"+ana.User.ID+"/posts"), 1)
	assert.Empty(t, getPosts(t, srv.URL+"/api/v1/users/"+bo.User.ID+"/posts"))

	del := func(token string) int {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/posts/"+created.Post.ID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, del(bo.Token))
	assert.Equal(t, http.StatusNoContent, del(ana.Token))
	assert.Empty(t, getPosts(t, srv.URL+"/api/v1/posts"))
	assert.False(t, backend.HasFile("media", appwrite.FileIDFromURL(created.Post.ThumbnailURL)))
}

func TestCreatePost_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := createPost(t, srv, "", "No auth")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = createPost(t, srv, "not-a-token", "Bad auth")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe(t *testing.T) {
	srv, _ := newTestServer(t)
	ana := signUp(t, srv, "ana@example.com", "ana")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ana.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user users.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, ana.User.ID, user.ID)
}
