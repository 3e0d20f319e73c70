package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"Atelie/internal/core/apperr"
	"Atelie/internal/core/posts"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Fields   map[string]string `json:"fields,omitempty"`
	Error    string            `json:"error"`
	Category string            `json:"category"`
	Message  string            `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, category, message string) {
	writeErrorBody(w, statusCode, ErrorResponse{Error: errorType, Category: category, Message: message})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// StatusOf returns the HTTP status for a core error.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidQuery:
		return http.StatusBadRequest
	case apperr.KindContentRejected:
		return http.StatusUnprocessableEntity
	case apperr.KindUnauthorized:
		if errors.Is(err, posts.ErrNotOwner) {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindModerationUnavailable, apperr.KindRemoteUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindUpload, apperr.KindPersist:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError maps a core error to its status and JSON body.
// Internal errors are logged with their cause and never echoed to the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := StatusOf(err)

	body := ErrorResponse{
		Error:    kind.String(),
		Category: kind.Category(),
		Message:  apperr.MessageOf(err),
		Fields:   apperr.FieldsOf(err),
	}
	if kind == apperr.KindInternal {
		body.Message = apperr.MessageInternal
		body.Fields = nil
	}

	event := log.Info()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("kind", kind.String()).Str("method", r.Method).Str("path", r.URL.Path).
		Int("status", status).Msg("request failed")

	writeErrorBody(w, status, body)
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode error response")
	}
}
