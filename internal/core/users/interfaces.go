package users

import (
	"context"

	"Atelie/internal/core/session"
)

// UserService defines the auth flows. It is the only writer of sessions:
// SignUp and SignIn create them, SignOut revokes them.
type UserService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error)
	SignOut(ctx context.Context, sess session.Session) error

	// CurrentUser resolves the session's account and its user document.
	CurrentUser(ctx context.Context, sess session.Session) (*User, error)

	// RequestPasswordRecovery sends a recovery link pointing at redirectURL.
	RequestPasswordRecovery(ctx context.Context, email, redirectURL string) error
}
