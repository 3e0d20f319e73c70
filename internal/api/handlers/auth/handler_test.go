package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Atelie/internal/core/apperr"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
)

// MockUserService is a mock implementation of users.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, req users.SignUpRequest) (*users.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.AuthResult), args.Error(1)
}

func (m *MockUserService) SignIn(ctx context.Context, req users.SignInRequest) (*users.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.AuthResult), args.Error(1)
}

func (m *MockUserService) SignOut(ctx context.Context, sess session.Session) error {
	return m.Called(ctx, sess).Error(0)
}

func (m *MockUserService) CurrentUser(ctx context.Context, sess session.Session) (*users.User, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func (m *MockUserService) RequestPasswordRecovery(ctx context.Context, email, redirectURL string) error {
	return m.Called(ctx, email, redirectURL).Error(0)
}

func newTestSealer(t *testing.T) *session.Sealer {
	t.Helper()
	sealer, err := session.NewSealerFromBase64(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{3}, session.KeySize)))
	require.NoError(t, err)
	return sealer
}

func testResult() *users.AuthResult {
	return &users.AuthResult{
		User: &users.User{ID: "user1", AccountID: "acc1", Email: "ana@example.com", Username: "ana"},
		Session: session.Session{
			ID:        "sess1",
			Secret:    "secret",
			AccountID: "acc1",
			UserID:    "user1",
			Username:  "ana",
			ExpiresAt: time.Now().Add(365 * 24 * time.Hour),
		},
	}
}

func TestHandleSignIn_IssuesCappedToken(t *testing.T) {
	svc := new(MockUserService)
	sealer := newTestSealer(t)
	h := NewHandler(svc, sealer, time.Hour, "https://example.com/reset")

	req := users.SignInRequest{Email: "ana@example.com", Password: "password1"}
	svc.On("SignIn", mock.Anything, req).Return(testResult(), nil)

	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ana", resp.User.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	sess, err := sealer.Unseal(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user1", sess.UserID)
	assert.Equal(t, "secret", sess.Secret)
	svc.AssertExpectations(t)
}

func TestHandleSignIn_InvalidCredentials(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	svc.On("SignIn", mock.Anything, mock.Anything).
		Return(nil, apperr.New(apperr.KindUnauthorized, "signIn", "Unauthorized: Invalid credentials."))

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in",
		strings.NewReader(`{"email":"ana@example.com","password":"wrong-pass"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestHandleSignUp_Created(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	req := users.SignUpRequest{Email: "ana@example.com", Password: "password1", Username: "ana"}
	svc.On("SignUp", mock.Anything, req).Return(testResult(), nil)

	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-up", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestHandleSignUp_ValidationFields(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	svc.On("SignUp", mock.Anything, mock.Anything).
		Return(nil, apperr.Validation("signUp", map[string]string{"email": "email is required"}))

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-up", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")
}

func TestHandleSignIn_MalformedBody(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything)
}

func TestHandleSignOut(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	sess := testResult().Session
	svc.On("SignOut", mock.Anything, sess).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-out", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.HandleSignOut(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandleMe_NoSession(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	rec := httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "")

	result := testResult()
	svc.On("CurrentUser", mock.Anything, result.Session).Return(result.User, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(session.WithSession(req.Context(), result.Session))
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var user users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestHandleRecovery_UsesConfiguredRedirect(t *testing.T) {
	svc := new(MockUserService)
	h := NewHandler(svc, newTestSealer(t), time.Hour, "https://example.com/reset")

	svc.On("RequestPasswordRecovery", mock.Anything, "ana@example.com", "https://example.com/reset").Return(nil)

	rec := httptest.NewRecorder()
	h.HandleRecovery(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/recovery",
		strings.NewReader(`{"email":"ana@example.com"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	svc.AssertExpectations(t)
}
