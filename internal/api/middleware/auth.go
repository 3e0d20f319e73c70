package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"Atelie/internal/core/session"
)

// AuthMiddleware is implemented by SessionAuth.
type AuthMiddleware interface {
	RequireAuth(next http.Handler) http.Handler
	OptionalAuth(next http.Handler) http.Handler
}

// SessionAuth authenticates requests with a sealed session token, taken from
// the Authorization header or, failing that, the browser session cookie.
type SessionAuth struct {
	sealer  *session.Sealer
	cookies *CookieStore
}

var _ AuthMiddleware = (*SessionAuth)(nil)

// NewSessionAuth creates the auth middleware. cookies may be nil for bearer-only auth.
func NewSessionAuth(sealer *session.Sealer, cookies *CookieStore) *SessionAuth {
	return &SessionAuth{sealer: sealer, cookies: cookies}
}

// RequireAuth rejects requests without a valid session with 401.
// On success the session is injected into the request context.
func (m *SessionAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, fromHeader := m.token(r)
		if token == "" {
			if fromHeader {
				writeAuthError(w, "Invalid Authorization header format. Expected: Bearer <token>")
				return
			}
			writeAuthError(w, "Authentication required")
			return
		}

		sess, err := m.sealer.Unseal(token)
		if err != nil {
			log.Info().Err(err).Str("ip", r.RemoteAddr).Str("method", r.Method).Str("path", r.URL.Path).
				Msg("auth failure")
			writeAuthError(w, "Invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

// OptionalAuth loads the session if present and valid, but never rejects.
func (m *SessionAuth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := m.token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := m.sealer.Unseal(token)
		if err != nil {
			log.Debug().Err(err).Msg("optional auth failed")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

// token returns the presented token and whether an Authorization header was sent.
func (m *SessionAuth) token(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", true
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
	}
	if m.cookies != nil {
		return m.cookies.Token(r), false
	}
	return "", false
}

// GetSession extracts the session injected by the auth middleware.
func GetSession(r *http.Request) (session.Session, bool) {
	return session.FromContext(r.Context())
}

// GetUserID returns the signed-in user's id, or empty string.
func GetUserID(r *http.Request) string {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return ""
	}
	return sess.UserID
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="atelie"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":    "Unauthorized",
		"category": "auth",
		"message":  message,
	}); err != nil {
		log.Error().Err(err).Msg("failed to encode auth error")
	}
}
