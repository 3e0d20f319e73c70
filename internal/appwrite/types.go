package appwrite

import (
	"encoding/json"
	"fmt"
	"time"
)

// Account is a backend user account.
type Account struct {
	CreatedAt time.Time `json:"$createdAt"`
	ID        string    `json:"$id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
}

// Session is an authenticated session. Secret is only returned to
// API-key authenticated callers at creation time.
type Session struct {
	ExpiresAt time.Time `json:"expire"`
	ID        string    `json:"$id"`
	UserID    string    `json:"userId"`
	Secret    string    `json:"secret"`
}

// File is a stored blob.
type File struct {
	ID       string `json:"$id"`
	BucketID string `json:"bucketId"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"sizeOriginal"`
}

// Upload is the payload for CreateFile.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// Document is a stored record. Raw holds the full JSON object, including
// the $-prefixed metadata, so callers can decode it into their own types.
type Document struct {
	CreatedAt    time.Time
	ID           string
	CollectionID string
	Raw          json.RawMessage
}

type documentMeta struct {
	CreatedAt    time.Time `json:"$createdAt"`
	ID           string    `json:"$id"`
	CollectionID string    `json:"$collectionId"`
}

// UnmarshalJSON keeps the raw object alongside the decoded metadata.
func (d *Document) UnmarshalJSON(data []byte) error {
	var meta documentMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	d.ID = meta.ID
	d.CollectionID = meta.CollectionID
	d.CreatedAt = meta.CreatedAt
	d.Raw = append(d.Raw[:0], data...)
	return nil
}

// MarshalJSON writes the raw object back out.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("null"), nil
	}
	return d.Raw, nil
}

// Decode unmarshals the document into v.
func (d Document) Decode(v any) error {
	if len(d.Raw) == 0 {
		return fmt.Errorf("document %q has no content", d.ID)
	}
	return json.Unmarshal(d.Raw, v)
}

// documentList is the list envelope.
type documentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
