package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
)

// KeySize is the required sealing key length (AES-256).
const KeySize = 32

var (
	// ErrInvalidToken is returned for tokens that cannot be decrypted or decoded.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("session token expired")
)

// Sealer turns sessions into opaque bearer tokens and back.
// Tokens are compact JWE with direct key agreement and A256GCM.
type Sealer struct {
	now func() time.Time
	key []byte
}

// NewSealer creates a Sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Sealer{key: append([]byte(nil), key...), now: time.Now}, nil
}

// NewSealerFromBase64 decodes a standard base64 key, as stored in configuration.
func NewSealerFromBase64(encoded string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seal key: %w", err)
	}
	return NewSealer(key)
}

// Seal encrypts s into a token.
func (s *Sealer) Seal(sess Session) (string, error) {
	if sess.Secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	if sess.UserID == "" {
		return "", fmt.Errorf("user ID is required")
	}
	if sess.ExpiresAt.IsZero() {
		return "", fmt.Errorf("session expiry is required")
	}

	plaintext, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	token, err := jwe.Encrypt(plaintext,
		jwe.WithKey(jwa.DIRECT, s.key),
		jwe.WithContentEncryption(jwa.A256GCM),
	)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt session: %w", err)
	}
	return string(token), nil
}

// Unseal decrypts token and checks its expiry.
func (s *Sealer) Unseal(token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("%w: token is required", ErrInvalidToken)
	}

	plaintext, err := jwe.Decrypt([]byte(token), jwe.WithKey(jwa.DIRECT, s.key))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var sess Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if sess.Secret == "" || sess.UserID == "" {
		return Session{}, fmt.Errorf("%w: missing principal", ErrInvalidToken)
	}
	if sess.Expired(s.now()) {
		return Session{}, fmt.Errorf("%w at %s", ErrExpiredToken, sess.ExpiresAt.Format(time.RFC3339))
	}
	return sess, nil
}

// Issue seals sess with its expiry capped at ttl from now.
// It returns the token and the expiry that was sealed.
func (s *Sealer) Issue(sess Session, ttl time.Duration) (string, time.Time, error) {
	if ttl > 0 {
		if limit := s.now().Add(ttl); sess.ExpiresAt.IsZero() || sess.ExpiresAt.After(limit) {
			sess.ExpiresAt = limit
		}
	}
	token, err := s.Seal(sess)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, sess.ExpiresAt, nil
}
