package post

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"Atelie/internal/api/handlers"
	"Atelie/internal/api/middleware"
	"Atelie/internal/core/posts"
)

// formOverheadBytes is allowed on top of the thumbnail for the text fields and multipart framing.
const formOverheadBytes = 1 << 20

// CreateHandler handles post creation requests
type CreateHandler struct {
	service       posts.Service
	maxThumbBytes int64
}

// NewCreateHandler creates a new create handler. maxThumbBytes <= 0 uses the service default.
func NewCreateHandler(service posts.Service, maxThumbBytes int64) *CreateHandler {
	if maxThumbBytes <= 0 {
		maxThumbBytes = posts.DefaultMaxThumbnailBytes
	}
	return &CreateHandler{service: service, maxThumbBytes: maxThumbBytes}
}

// CreateResponse is returned by HandleCreate.
type CreateResponse struct {
	Post   *posts.Post `json:"post"`
	Stages []string    `json:"stages"`
}

// HandleCreate handles POST /api/v1/posts
// multipart/form-data with fields title, description and file thumbnail.
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "auth", "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxThumbBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(h.maxThumbBytes + formOverheadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.WriteError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge", "validation",
				"Request body too large")
			return
		}
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "validation",
			"Expected a multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	thumbnail, err := readThumbnail(r)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "validation", "Could not read thumbnail")
		return
	}

	var stages []string
	req := posts.CreatePostRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Thumbnail:   thumbnail,
		CreatorID:   userID,
		Progress: func(t posts.Transition) {
			stages = append(stages, t.Stage.String())
		},
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		log.Info().Strs("stages", stages).Str("creator", userID).Msg("create post failed")
		handlers.WriteServiceError(w, r, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, CreateResponse{Post: post, Stages: stages})
}

// readThumbnail returns nil when no file was attached; the service reports it as a field error.
func readThumbnail(r *http.Request) (*posts.Thumbnail, error) {
	file, header, err := r.FormFile("thumbnail")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &posts.Thumbnail{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
