package users

import (
	"errors"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/apperr"
)

// Messages shown by the sign-in screen.
const (
	msgInvalidCredentials = "Unauthorized: Invalid credentials."
	msgUserNotFound       = "Not found: User does not exist."
	msgSessionExpired     = "Your session has expired. Please sign in again."
	msgAccountExists      = "An account with this email already exists."
)

// mapAuthError converts a backend error from an auth call.
func mapAuthError(op string, err error) error {
	switch {
	case errors.Is(err, appwrite.ErrUnauthorized):
		return apperr.Wrap(apperr.KindUnauthorized, op, msgInvalidCredentials, err)
	case errors.Is(err, appwrite.ErrNotFound):
		return apperr.Wrap(apperr.KindUnauthorized, op, msgUserNotFound, err)
	default:
		return mapBackendError(op, err)
	}
}

// mapSessionError converts a backend error from a call made with an existing session.
func mapSessionError(op string, err error) error {
	if appwrite.IsAuthError(err) {
		return apperr.Wrap(apperr.KindUnauthorized, op, msgSessionExpired, err)
	}
	return mapBackendError(op, err)
}

func mapBackendError(op string, err error) error {
	var apiErr *appwrite.APIError
	switch {
	case errors.Is(err, appwrite.ErrConflict):
		e := apperr.Validation(op, map[string]string{"email": msgAccountExists})
		e.Err = err
		return e
	case errors.Is(err, appwrite.ErrBadRequest) && errors.As(err, &apiErr):
		return apperr.Wrap(apperr.KindValidation, op, apiErr.Message, err)
	case errors.Is(err, appwrite.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "", err)
	default:
		return apperr.Wrap(apperr.KindRemoteUnavailable, op, "", err)
	}
}
