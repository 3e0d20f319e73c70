package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the browser cookie holding the sealed session token.
	SessionCookieName = "atelie_session"
	// MinCookieSecretLength is the minimum cookie signing secret length.
	MinCookieSecretLength = 32

	tokenKey = "token"
)

// CookieStore keeps the sealed session token in a signed cookie.
type CookieStore struct {
	store *sessions.CookieStore
}

// NewCookieStore creates a cookie store signed with secret.
func NewCookieStore(secret string, secure bool) (*CookieStore, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("COOKIE_SECRET must be at least %d bytes", MinCookieSecretLength)
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: store}, nil
}

// Token returns the stored token, or empty string.
func (c *CookieStore) Token(r *http.Request) string {
	sess, err := c.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenKey].(string)
	return token
}

// Save stores token until expiresAt.
func (c *CookieStore) Save(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) error {
	sess, _ := c.store.Get(r, SessionCookieName)
	sess.Values[tokenKey] = token
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	sess.Options.MaxAge = maxAge
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// Clear deletes the cookie.
func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, SessionCookieName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session cookie: %w", err)
	}
	return nil
}
