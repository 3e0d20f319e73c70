package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, KeySize)
}

func testSession() Session {
	return Session{
		ID:        "sess1",
		Secret:    "secret-value",
		AccountID: "acc1",
		UserID:    "user1",
		Username:  "ana",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

func TestSealUnseal_RoundTrip(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	want := testSession()
	token, err := sealer.Seal(want)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(token, "."), "compact JWE has five segments")
	assert.NotContains(t, token, "secret-value")

	got, err := sealer.Unseal(token)
	require.NoError(t, err)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	got.ExpiresAt = want.ExpiresAt
	assert.Equal(t, want, got)
}

func TestUnseal_WrongKey(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)
	other, err := NewSealer(bytes.Repeat([]byte{9}, KeySize))
	require.NoError(t, err)

	token, err := sealer.Seal(testSession())
	require.NoError(t, err)

	_, err = other.Unseal(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnseal_Expired(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	token, err := sealer.Seal(testSession())
	require.NoError(t, err)

	sealer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = sealer.Unseal(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestUnseal_Garbage(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c.d.e"} {
		_, err := sealer.Unseal(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestSeal_RequiresFields(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)

	s := testSession()
	s.Secret = ""
	_, err = sealer.Seal(s)
	assert.Error(t, err)

	s = testSession()
	s.ExpiresAt = time.Time{}
	_, err = sealer.Seal(s)
	assert.Error(t, err)
}

func TestNewSealer_KeyValidation(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)

	_, err = NewSealerFromBase64("%%%")
	assert.Error(t, err)

	_, err = NewSealerFromBase64(base64.StdEncoding.EncodeToString(testKey()))
	assert.NoError(t, err)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), testSession())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user1", got.UserID)
}

func TestIssue_CapsExpiry(t *testing.T) {
	sealer, err := NewSealer(testKey())
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sealer.now = func() time.Time { return now }

	sess := testSession()
	sess.ExpiresAt = now.Add(365 * 24 * time.Hour)

	token, expiresAt, err := sealer.Issue(sess, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(now.Add(24*time.Hour)))

	got, err := sealer.Unseal(token)
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(expiresAt))

	sess.ExpiresAt = now.Add(time.Hour)
	_, expiresAt, err = sealer.Issue(sess, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(now.Add(time.Hour)), "shorter backend expiry is kept")
}
