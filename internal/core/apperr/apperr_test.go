package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "typed", err: New(KindUnauthorized, "op", "nope"), want: KindUnauthorized},
		{name: "wrapped typed", err: fmt.Errorf("outer: %w", Wrap(KindRemoteUnavailable, "op", "", cause)), want: KindRemoteUnavailable},
		{name: "untyped", err: cause, want: KindInternal},
		{name: "nil", err: nil, want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_SurfacesCauseMessage(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Wrap(KindRemoteUnavailable, "posts.list", "", cause)

	assert.Equal(t, "dial tcp: i/o timeout", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "posts.list: RemoteUnavailable")
}

func TestKind_NamesAndCategories(t *testing.T) {
	tests := []struct {
		kind     Kind
		name     string
		category string
	}{
		{KindInternal, "Internal", "internal"},
		{KindValidation, "ValidationError", "validation"},
		{KindContentRejected, "ContentRejected", "content-policy"},
		{KindModerationUnavailable, "ModerationUnavailable", "network"},
		{KindUpload, "UploadError", "network"},
		{KindPersist, "PersistError", "network"},
		{KindRemoteUnavailable, "RemoteUnavailable", "network"},
		{KindUnauthorized, "Unauthorized", "auth"},
		{KindInvalidQuery, "InvalidQuery", "validation"},
		{KindNotFound, "NotFound", "not-found"},
		{Kind(99), "Kind(99)", "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.category, tt.kind.Category())
		})
	}
}

func TestWrap_InternalKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New(`decode post "p1": json: cannot unmarshal number`)
	err := Wrap(KindInternal, "listPosts", "", cause)

	assert.Empty(t, err.Message)
	assert.Equal(t, MessageInternal, MessageOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cannot unmarshal", "the cause is still logged")

	explicit := &Error{Kind: KindInternal, Op: "op", Message: "leaky detail"}
	assert.Equal(t, MessageInternal, MessageOf(explicit))
}

func TestCategories_AreDistinguishable(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.Category())
	assert.Equal(t, "content-policy", KindContentRejected.Category())
	assert.Equal(t, "network", KindModerationUnavailable.Category())
	assert.Equal(t, "network", KindRemoteUnavailable.Category())
	assert.Equal(t, "auth", KindUnauthorized.Category())
}

func TestValidation_FieldsInMessage(t *testing.T) {
	err := Validation("posts.create", map[string]string{"title": "title is required", "description": "description is required"})

	assert.True(t, Is(err, KindValidation))
	assert.Equal(t, "posts.create: ValidationError: required fields are missing or invalid (description=description is required, title=title is required)", err.Error())
	assert.Len(t, FieldsOf(err), 2)
}

func TestMessageOf_HidesUntyped(t *testing.T) {
	assert.Equal(t, "An internal error occurred", MessageOf(errors.New("pq: password authentication failed")))
	assert.Equal(t, "", MessageOf(nil))
	assert.Equal(t, "bad", MessageOf(New(KindValidation, "", "bad")))
}
