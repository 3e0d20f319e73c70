package memory

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/imageproxy"
)

// CreateFile stores upload in bucketID.
func (b *Backend) CreateFile(_ context.Context, bucketID, fileID string, upload appwrite.Upload) (*appwrite.File, error) {
	if len(upload.Data) == 0 {
		return nil, appwrite.NewStatusError("createFile", http.StatusBadRequest, "storage_file_empty",
			"Empty file passed to the endpoint.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bucket, ok := b.files[bucketID]
	if !ok {
		bucket = make(map[string]*storedFile)
		b.files[bucketID] = bucket
	}
	if _, exists := bucket[fileID]; exists {
		return nil, appwrite.NewStatusError("createFile", http.StatusConflict, "storage_file_already_exists",
			"A storage file with the requested ID already exists.")
	}

	stored := &storedFile{
		file: appwrite.File{
			ID:       fileID,
			BucketID: bucketID,
			Name:     upload.Name,
			MimeType: upload.MimeType,
			Size:     int64(len(upload.Data)),
		},
		data: append([]byte(nil), upload.Data...),
	}
	bucket[fileID] = stored

	out := stored.file
	return &out, nil
}

// FilePreviewURL builds the preview URL the same way the hosted backend does.
func (b *Backend) FilePreviewURL(bucketID, fileID string, preview appwrite.Preview) string {
	return appwrite.BuildFilePreviewURL(b.endpoint, b.projectID, bucketID, fileID, preview)
}

// DeleteFile removes a stored file.
func (b *Backend) DeleteFile(_ context.Context, bucketID, fileID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.files[bucketID][fileID]; !ok {
		return appwrite.NewStatusError("deleteFile", http.StatusNotFound, "storage_file_not_found",
			"The requested file could not be found.")
	}
	delete(b.files[bucketID], fileID)
	b.previews.Purge(bucketID, fileID)
	return nil
}

// HasFile reports whether fileID is stored in bucketID.
func (b *Backend) HasFile(bucketID, fileID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.files[bucketID][fileID]
	return ok
}

// FileHandler serves stored files at .../storage/buckets/{bucket}/files/{file}/{view|download|preview}
// so preview URLs resolve in local development. Previews honour width, height,
// gravity and quality; a file that cannot be decoded is served as stored.
func (b *Backend) FileHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, rest, ok := strings.Cut(r.URL.Path, "/storage/buckets/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		parts := strings.Split(rest, "/")
		if len(parts) < 3 || parts[1] != "files" {
			http.NotFound(w, r)
			return
		}
		bucketID, fileID := parts[0], parts[2]

		b.mu.RLock()
		stored, found := b.files[bucketID][fileID]
		b.mu.RUnlock()
		if !found {
			http.NotFound(w, r)
			return
		}

		contentType, data := stored.file.MimeType, stored.data
		if len(parts) > 3 && parts[3] == "preview" {
			contentType, data = b.preview(bucketID, fileID, stored, parsePreview(r))
		}

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(data)
	})
}

func (b *Backend) preview(bucketID, fileID string, stored *storedFile, preview appwrite.Preview) (string, []byte) {
	if cached, ok := b.previews.Get(bucketID, fileID, preview); ok {
		return cached.ContentType, cached.Data
	}

	data, contentType, err := b.processor.Process(stored.data, preview)
	if err != nil {
		log.Debug().Err(err).Str("bucket_id", bucketID).Str("file_id", fileID).Msg("preview not rendered, serving original")
		return stored.file.MimeType, stored.data
	}
	b.previews.Set(bucketID, fileID, preview, imageproxy.Rendered{ContentType: contentType, Data: data})
	return contentType, data
}

func parsePreview(r *http.Request) appwrite.Preview {
	q := r.URL.Query()
	atoi := func(key string) int {
		n, err := strconv.Atoi(q.Get(key))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return appwrite.Preview{
		Width:   min(atoi("width"), 4000),
		Height:  min(atoi("height"), 4000),
		Gravity: q.Get("gravity"),
		Quality: atoi("quality"),
	}
}
