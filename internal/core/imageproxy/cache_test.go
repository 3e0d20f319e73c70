package imageproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atelie/internal/appwrite"
)

func TestCache_GetSetPurge(t *testing.T) {
	cache, err := NewCache(0)
	require.NoError(t, err)

	small := appwrite.Preview{Width: 10, Height: 10}
	large := appwrite.ThumbnailPreview

	_, ok := cache.Get("media", "f1", small)
	assert.False(t, ok)

	cache.Set("media", "f1", small, Rendered{ContentType: "image/png", Data: []byte("a")})
	cache.Set("media", "f1", large, Rendered{ContentType: "image/png", Data: []byte("b")})
	cache.Set("media", "f10", small, Rendered{ContentType: "image/png", Data: []byte("c")})

	got, ok := cache.Get("media", "f1", small)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), got.Data)

	cache.Purge("media", "f1")
	assert.Equal(t, 1, cache.Len())
	_, ok = cache.Get("media", "f10", small)
	assert.True(t, ok, "purge matches the exact file id")
}

func TestCache_Evicts(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		cache.Set("media", id, appwrite.Preview{}, Rendered{Data: []byte(id)})
	}
	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get("media", "a", appwrite.Preview{})
	assert.False(t, ok)
}
