// Package session carries the authenticated principal through a request.
//
// A Session is written once, by sign-in or sign-up, and travels to the client
// as a sealed token. Handlers unseal it and place a copy in the request
// context; every other component only reads it from there.
package session

import (
	"context"
	"time"
)

// Session is the signed-in user as seen by the backend.
type Session struct {
	ExpiresAt time.Time `json:"exp"`
	ID        string    `json:"sid"`
	Secret    string    `json:"sec"`
	AccountID string    `json:"aid"`
	UserID    string    `json:"uid"`
	Username  string    `json:"usr,omitempty"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
