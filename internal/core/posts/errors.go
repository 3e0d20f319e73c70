package posts

import (
	"errors"
	"strings"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/apperr"
	"Atelie/internal/moderation"
)

const msgNotOwner = "You can only delete your own posts."

// ErrNotOwner is the cause of the Unauthorized error returned when a post is
// deleted by someone other than its creator.
var ErrNotOwner = errors.New("requester is not the post creator")

// mapReadError converts a backend error from a retrieval call.
func mapReadError(op string, err error) error {
	switch {
	case errors.Is(err, appwrite.ErrMissingFulltextIndex):
		return apperr.Wrap(apperr.KindInvalidQuery, op, "Search is not available: the title attribute has no full-text index.", err)
	case errors.Is(err, appwrite.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, "Post not found.", err)
	case appwrite.IsAuthError(err):
		return apperr.Wrap(apperr.KindUnauthorized, op, causeMessage(err), err)
	default:
		return apperr.Wrap(apperr.KindRemoteUnavailable, op, causeMessage(err), err)
	}
}

func mapModerationError(err error) error {
	if errors.Is(err, moderation.ErrUnavailable) {
		return apperr.Wrap(apperr.KindModerationUnavailable, "createPost",
			"The image could not be checked right now. Please try again.", err)
	}
	return apperr.Wrap(apperr.KindModerationUnavailable, "createPost", causeMessage(err), err)
}

func rejectionError(violations []moderation.Violation) error {
	reasons := make([]string, len(violations))
	for i, v := range violations {
		reasons[i] = string(v)
	}
	return apperr.New(apperr.KindContentRejected, "createPost",
		"Image contains inappropriate content ("+strings.Join(reasons, ", ")+")")
}

// causeMessage prefers the backend's own message over the wrapped chain.
func causeMessage(err error) string {
	var apiErr *appwrite.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
