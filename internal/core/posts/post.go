package posts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Post is a published image post.
type Post struct {
	CreatedAt    time.Time `json:"createdAt"`
	Creator      *Creator  `json:"creator,omitempty"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreatorID    string    `json:"creatorId"`
}

// Creator is the author profile, present when the backend expands the relationship.
type Creator struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// postDocument is the stored shape of a post.
type postDocument struct {
	Title       string     `json:"title"`
	Thumbnail   string     `json:"thumbnail"`
	Description string     `json:"description"`
	Creator     creatorRef `json:"creator"`
}

// newPostDocument is what CreatePost writes. The creator is stored as an id.
type newPostDocument struct {
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
	Creator     string `json:"creator"`
}

// creatorRef decodes a relationship that is either a bare id or an expanded document.
type creatorRef struct {
	ID       string
	Username string
	Avatar   string
	Expanded bool
}

func (c *creatorRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = creatorRef{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = creatorRef{ID: id}
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID       string `json:"$id"`
			Username string `json:"username"`
			Avatar   string `json:"avatar"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*c = creatorRef{ID: obj.ID, Username: obj.Username, Avatar: obj.Avatar, Expanded: true}
		return nil
	default:
		return fmt.Errorf("creator must be an id or a document, got %s", data)
	}
}

// Thumbnail is the image selected in the create form.
type Thumbnail struct {
	Name     string
	MimeType string
	Data     []byte
}

// CreatePostRequest is the create form submission.
type CreatePostRequest struct {
	Thumbnail *Thumbnail
	// Progress, when set, receives every pipeline transition.
	Progress    func(Transition)
	Title       string
	Description string
	// CreatorID is the signed-in user's id. It is taken from the session, never from the form.
	CreatorID string
}

// Stage is a step of the create pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageModerating
	StageUploading
	StagePersisting
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageValidating:
		return "validating"
	case StageModerating:
		return "moderating"
	case StageUploading:
		return "uploading"
	case StagePersisting:
		return "persisting"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Transition reports the pipeline entering Stage. Err is set for StageFailed.
type Transition struct {
	Err   error
	Stage Stage
}

// Orphan is a stored file no post document references.
type Orphan struct {
	BucketID string
	FileID   string
	PostID   string
	Reason   string
}

// Orphan reasons.
const (
	OrphanPersistFailed    = "persist_failed"
	OrphanBlobDeleteFailed = "blob_delete_failed"
)
