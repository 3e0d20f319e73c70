package users

import (
	"Atelie/internal/core/session"
)

// User is the profile document linked to a backend account.
// Posts reference it as their creator.
type User struct {
	ID        string `json:"$id"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// userDocument is the stored shape of a User.
type userDocument struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// SignUpRequest is the input of the sign-up screen.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// SignInRequest is the input of the sign-in screen.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	User    *User
	Session session.Session
}
