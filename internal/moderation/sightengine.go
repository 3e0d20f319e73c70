package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the Sightengine image check API.
const DefaultEndpoint = "https://api.sightengine.com/1.0/check.json"

// Models requested for every check.
const Models = "nudity,wad,offensive,gore"

// maxResponseBytes bounds the response body read from the API.
const maxResponseBytes = 1 << 20

// Config holds Sightengine credentials.
type Config struct {
	HTTPClient *http.Client
	Endpoint   string
	APIUser    string
	APISecret  string
}

// Client checks images with the Sightengine API.
type Client struct {
	http      *http.Client
	endpoint  string
	apiUser   string
	apiSecret string
}

var _ Moderator = (*Client)(nil)

// NewClient creates a Sightengine client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIUser == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("sightengine api user and secret are required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:      httpClient,
		endpoint:  endpoint,
		apiUser:   cfg.APIUser,
		apiSecret: cfg.APISecret,
	}, nil
}

type checkResponse struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
	Status string `json:"status"`
	Scores
}

// CheckImage uploads image and returns its scores.
// Returns:
//   - ErrUnavailable if the request fails, the API answers with a non-2xx status,
//     reports status "failure", or the body cannot be decoded
func (c *Client) CheckImage(ctx context.Context, image Image) (*Scores, error) {
	body, contentType, err := c.buildForm(image)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close moderation response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded checkResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	if decoded.Status != "success" {
		msg := "status " + decoded.Status
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}

	scores := decoded.Scores
	return &scores, nil
}

func (c *Client) buildForm(image Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range [][2]string{
		{"models", Models},
		{"api_user", c.apiUser},
		{"api_secret", c.apiSecret},
	} {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	name := image.Name
	if name == "" {
		name = "image"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, name))
	if image.MimeType != "" {
		header.Set("Content-Type", image.MimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
