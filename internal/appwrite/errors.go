package appwrite

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Typed errors for backend operations.
// These allow services to use errors.Is() for reliable error detection
// instead of inspecting response codes.
var (
	// ErrBadRequest indicates the request was malformed or invalid (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates missing or invalid credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the resource already exists (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the backend rejected the call for rate limiting (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrMissingFulltextIndex indicates a search query on an attribute that has no full-text index.
	ErrMissingFulltextIndex = errors.New("missing fulltext index")

	// ErrUnavailable indicates the backend could not be reached or failed (network errors, HTTP 5xx).
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError is the error body returned by the backend.
type APIError struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s (%s, %d)", e.Message, e.Type, e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "... (truncated)"
		}
		if preview == "" {
			preview = http.StatusText(status)
		}
		apiErr.Message = preview
	}
	return apiErr
}

// isMissingIndex matches the backend's rejection of a search without a full-text index.
func isMissingIndex(apiErr *APIError) bool {
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "fulltext index") || strings.Contains(msg, "full-text index")
}

// wrapAPIError maps an APIError onto the sentinel errors while keeping the
// APIError reachable through errors.As.
func wrapAPIError(apiErr *APIError, operation string) error {
	var sentinel error
	switch {
	case apiErr.StatusCode == http.StatusBadRequest && isMissingIndex(apiErr):
		sentinel = ErrMissingFulltextIndex
	case apiErr.StatusCode == http.StatusBadRequest:
		sentinel = ErrBadRequest
	case apiErr.StatusCode == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case apiErr.StatusCode == http.StatusForbidden:
		sentinel = ErrForbidden
	case apiErr.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case apiErr.StatusCode == http.StatusConflict:
		sentinel = ErrConflict
	case apiErr.StatusCode == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case apiErr.StatusCode >= 500:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("%s failed: %w", operation, apiErr)
	}
	return fmt.Errorf("%s: %w: %w", operation, sentinel, apiErr)
}

func wrapTransportError(err error, operation string) error {
	return fmt.Errorf("%s: %w: %w", operation, ErrUnavailable, err)
}

// IsAuthError returns true if the error is an authentication/authorization error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// StatusCode returns the HTTP status of an APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// NewStatusError builds the error a backend call fails with for the given
// HTTP status. Alternative backends use it so callers see identical errors.
func NewStatusError(operation string, status int, errType, message string) error {
	return wrapAPIError(&APIError{StatusCode: status, Code: status, Type: errType, Message: message}, operation)
}
