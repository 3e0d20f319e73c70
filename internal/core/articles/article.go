package articles

import "time"

// Article is a read-only editorial piece.
type Article struct {
	CreatedAt    time.Time `json:"createdAt"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Introduction string    `json:"introduction"`
	Content      string    `json:"content"`
	Category     string    `json:"category"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ReadTime     string    `json:"readTime"`
}

type articleDocument struct {
	Title        string `json:"title"`
	Introduction string `json:"introduction"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	Thumbnail    string `json:"thumbnail"`
	ReadTime     string `json:"readTime"`
}

// Filter narrows ListArticles. The zero value lists everything.
type Filter struct {
	Category string
}
