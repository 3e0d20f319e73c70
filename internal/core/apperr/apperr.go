// Package apperr defines the error kinds every core operation reports.
// Backend and moderation client errors are converted to an *Error at the
// point where those clients are called; nothing untyped leaves the core.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure so callers can render feedback per category.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindContentRejected
	KindModerationUnavailable
	KindUpload
	KindPersist
	KindRemoteUnavailable
	KindUnauthorized
	KindInvalidQuery
	KindNotFound
)

var kindNames = map[Kind]string{
	KindInternal:              "Internal",
	KindValidation:            "ValidationError",
	KindContentRejected:       "ContentRejected",
	KindModerationUnavailable: "ModerationUnavailable",
	KindUpload:                "UploadError",
	KindPersist:               "PersistError",
	KindRemoteUnavailable:     "RemoteUnavailable",
	KindUnauthorized:          "Unauthorized",
	KindInvalidQuery:          "InvalidQuery",
	KindNotFound:              "NotFound",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category groups kinds the way the UI distinguishes them.
func (k Kind) Category() string {
	switch k {
	case KindValidation, KindInvalidQuery:
		return "validation"
	case KindContentRejected:
		return "content-policy"
	case KindModerationUnavailable, KindUpload, KindPersist, KindRemoteUnavailable:
		return "network"
	case KindUnauthorized:
		return "auth"
	case KindNotFound:
		return "not-found"
	default:
		return "internal"
	}
}

// Error is the typed error returned by core services.
type Error struct {
	Err     error
	Fields  map[string]string
	Op      string
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Fields[k])
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a user-facing message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind that keeps cause for logging.
// The cause's text is used as the message when message is empty, so the
// underlying reason is surfaced rather than swallowed. Internal causes are
// never copied into the message.
func Wrap(kind Kind, op, message string, cause error) *Error {
	if message == "" && cause != nil && kind != KindInternal {
		message = cause.Error()
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Validation creates a validation error carrying per-field messages.
func Validation(op string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: "required fields are missing or invalid",
		Fields:  fields,
	}
}

// KindOf reports the kind of err. Errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// MessageInternal is shown for every Internal error.
const MessageInternal = "An internal error occurred"

// MessageOf returns the user-facing message of err.
// Internal errors always get MessageInternal.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return MessageInternal
}

// FieldsOf returns the per-field messages of a validation error, if any.
func FieldsOf(err error) map[string]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
