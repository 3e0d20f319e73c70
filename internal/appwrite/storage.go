package appwrite

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
)

// Preview describes how a stored image is rendered by FilePreviewURL.
type Preview struct {
	Gravity string // crop anchor: center, top, top-left, ...
	Width   int
	Height  int
	Quality int
}

// ThumbnailPreview is the preview used for post thumbnails.
var ThumbnailPreview = Preview{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

func filesPath(bucketID string) string {
	return "/storage/buckets/" + url.PathEscape(bucketID) + "/files"
}

// CreateFile uploads a file as multipart/form-data.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID string, upload Upload) (*File, error) {
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("createFile: file data cannot be empty")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("fileId", fileID); err != nil {
		return nil, fmt.Errorf("createFile: failed to write fileId: %w", err)
	}

	name := upload.Name
	if name == "" {
		name = fileID
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if upload.MimeType != "" {
		header.Set("Content-Type", upload.MimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("createFile: failed to create file part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, fmt.Errorf("createFile: failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("createFile: failed to finish multipart body: %w", err)
	}

	req := request{
		method:      http.MethodPost,
		path:        filesPath(bucketID),
		body:        &buf,
		contentType: writer.FormDataContentType(),
	}

	var file File
	if err := c.do(ctx, "createFile", req, &file); err != nil {
		return nil, err
	}
	if file.ID == "" {
		return nil, fmt.Errorf("createFile: response missing required field: $id")
	}
	return &file, nil
}

// FilePreviewURL builds the preview URL for a stored file.
// Format: {endpoint}/storage/buckets/{bucket}/files/{id}/preview?gravity=..&height=..&project=..&quality=..&width=..
func (c *Client) FilePreviewURL(bucketID, fileID string, preview Preview) string {
	return BuildFilePreviewURL(c.endpoint, c.projectID, bucketID, fileID, preview)
}

// BuildFilePreviewURL is the deterministic preview URL builder.
// Returns empty string if any identifier is empty.
func BuildFilePreviewURL(endpoint, projectID, bucketID, fileID string, preview Preview) string {
	if endpoint == "" || bucketID == "" || fileID == "" {
		return ""
	}

	params := url.Values{}
	if preview.Width > 0 {
		params.Set("width", strconv.Itoa(preview.Width))
	}
	if preview.Height > 0 {
		params.Set("height", strconv.Itoa(preview.Height))
	}
	if preview.Gravity != "" {
		params.Set("gravity", preview.Gravity)
	}
	if preview.Quality > 0 {
		params.Set("quality", strconv.Itoa(preview.Quality))
	}
	if projectID != "" {
		params.Set("project", projectID)
	}

	return strings.TrimSuffix(endpoint, "/") + filesPath(bucketID) + "/" + url.PathEscape(fileID) +
		"/preview?" + params.Encode()
}

// FileIDFromURL extracts the file id from a preview or view URL built for this backend.
// Returns empty string when the URL does not reference a stored file.
func FileIDFromURL(fileURL string) string {
	_, rest, found := strings.Cut(fileURL, "/files/")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	id, _, _ = strings.Cut(id, "?")
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id
}

// DeleteFile deletes a stored file.
func (c *Client) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	req := request{method: http.MethodDelete, path: filesPath(bucketID) + "/" + url.PathEscape(fileID)}
	return c.do(ctx, "deleteFile", req, nil)
}
