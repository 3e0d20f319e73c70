package users

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"Atelie/internal/core/apperr"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 256
	maxUsernameLength = 128
)

func validateSignUp(req SignUpRequest) error {
	fields := make(map[string]string)

	switch email := strings.TrimSpace(req.Email); {
	case email == "":
		fields["email"] = "email is required"
	case !validEmail(email):
		fields["email"] = "email address is invalid"
	}

	switch n := utf8.RuneCountInString(req.Password); {
	case n == 0:
		fields["password"] = "password is required"
	case n < minPasswordLength || n > maxPasswordLength:
		fields["password"] = "password must be between 8 and 256 characters"
	}

	switch username := strings.TrimSpace(req.Username); {
	case username == "":
		fields["username"] = "username is required"
	case uniseg.GraphemeClusterCount(username) > maxUsernameLength:
		fields["username"] = "username must be at most 128 characters"
	}

	if len(fields) > 0 {
		return apperr.Validation("signUp", fields)
	}
	return nil
}

func validateSignIn(req SignInRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "email is required"
	}
	if req.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return apperr.Validation("signIn", fields)
	}
	return nil
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
