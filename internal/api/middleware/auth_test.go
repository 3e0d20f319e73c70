package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atelie/internal/core/session"
)

func testSealer(t *testing.T) *session.Sealer {
	t.Helper()
	sealer, err := session.NewSealer(bytes.Repeat([]byte{1}, session.KeySize))
	require.NoError(t, err)
	return sealer
}

func testToken(t *testing.T, sealer *session.Sealer) string {
	t.Helper()
	token, err := sealer.Seal(session.Session{
		ID:        "sess1",
		Secret:    "secret",
		UserID:    "user1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return token
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("user=" + GetUserID(r)))
	})
}

func TestRequireAuth(t *testing.T) {
	sealer := testSealer(t)
	token := testToken(t, sealer)
	handler := NewSessionAuth(sealer, nil).RequireAuth(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid bearer", header: "Bearer " + token, status: http.StatusOK, body: "user=user1"},
		{name: "missing", header: "", status: http.StatusUnauthorized, body: "Authentication required"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, body: "Expected: Bearer"},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized, body: "Invalid or expired session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestOptionalAuth_NeverRejects(t *testing.T) {
	sealer := testSealer(t)
	handler := NewSessionAuth(sealer, nil).OptionalAuth(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user=", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, sealer))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "user=user1", rec.Body.String())
}

func TestRequireAuth_Cookie(t *testing.T) {
	sealer := testSealer(t)
	cookies, err := NewCookieStore(strings.Repeat("k", MinCookieSecretLength), false)
	require.NoError(t, err)

	save := httptest.NewRecorder()
	require.NoError(t, cookies.Save(save, httptest.NewRequest(http.MethodPost, "/sign-in", nil),
		testToken(t, sealer), time.Now().Add(time.Hour)))
	setCookie := save.Result().Cookies()
	require.NotEmpty(t, setCookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range setCookie {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	NewSessionAuth(sealer, cookies).RequireAuth(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user=user1", rec.Body.String())
}
