package imageproxy

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"Atelie/internal/appwrite"
)

// DefaultCacheEntries bounds the number of rendered previews kept in memory.
const DefaultCacheEntries = 256

// Rendered is a cached preview.
type Rendered struct {
	ContentType string
	Data        []byte
}

// Cache keeps recently rendered previews.
type Cache struct {
	entries *lru.Cache[string, Rendered]
}

// NewCache creates a cache holding up to size previews. size <= 0 uses DefaultCacheEntries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	entries, err := lru.New[string, Rendered](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the preview of bucketID/fileID rendered with preview, if cached.
func (c *Cache) Get(bucketID, fileID string, preview appwrite.Preview) (Rendered, bool) {
	return c.entries.Get(cacheKey(bucketID, fileID, preview))
}

// Set stores a rendered preview.
func (c *Cache) Set(bucketID, fileID string, preview appwrite.Preview, rendered Rendered) {
	c.entries.Add(cacheKey(bucketID, fileID, preview), rendered)
}

// Purge drops every preview of bucketID/fileID.
func (c *Cache) Purge(bucketID, fileID string) {
	prefix := bucketID + "/" + fileID + "?"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}

// Len returns the number of cached previews.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(bucketID, fileID string, p appwrite.Preview) string {
	return bucketID + "/" + fileID + "?" + strconv.Itoa(p.Width) + "x" + strconv.Itoa(p.Height) +
		"," + p.Gravity + ",q" + strconv.Itoa(p.Quality)
}
