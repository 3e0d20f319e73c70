// Package appwrite is a small client for the hosted backend (Appwrite).
// It exposes the narrow contracts the gateway depends on (accounts,
// databases, storage and avatars) so core services can be tested against
// fakes and run against the in-process memory backend during development.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Accounts is the auth/session contract.
type Accounts interface {
	// CreateAccount registers a new account. id must be unique.
	CreateAccount(ctx context.Context, id, email, password, name string) (*Account, error)

	// CreateEmailSession signs in with email and password.
	// The returned Session carries the secret used for session-scoped calls.
	CreateEmailSession(ctx context.Context, email, password string) (*Session, error)

	// GetAccount returns the account that owns the session secret.
	GetAccount(ctx context.Context, secret string) (*Account, error)

	// DeleteSession revokes a session. sessionID may be "current".
	DeleteSession(ctx context.Context, secret, sessionID string) error

	// CreateRecovery sends a password recovery email that links to redirectURL.
	CreateRecovery(ctx context.Context, email, redirectURL string) error
}

// Databases is the document store contract. Collections live in the
// database the client was configured with.
type Databases interface {
	ListDocuments(ctx context.Context, collectionID string, queries ...Query) ([]Document, error)
	CreateDocument(ctx context.Context, collectionID, documentID string, data any) (*Document, error)
	GetDocument(ctx context.Context, collectionID, documentID string) (*Document, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
}

// Storage is the blob store contract.
type Storage interface {
	CreateFile(ctx context.Context, bucketID, fileID string, upload Upload) (*File, error)

	// FilePreviewURL builds the preview URL for a stored file. It performs no I/O.
	FilePreviewURL(bucketID, fileID string, preview Preview) string

	DeleteFile(ctx context.Context, bucketID, fileID string) error
}

// Avatars builds generated avatar URLs.
type Avatars interface {
	InitialsURL(name string) string
}

// Config holds the connection settings for the hosted backend.
type Config struct {
	Endpoint   string // e.g. https://cloud.appwrite.io/v1
	ProjectID  string
	APIKey     string
	DatabaseID string
	HTTPClient *http.Client
}

// Client implements Accounts, Databases, Storage and Avatars over the REST API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
}

var (
	_ Accounts  = (*Client)(nil)
	_ Databases = (*Client)(nil)
	_ Storage   = (*Client)(nil)
	_ Avatars   = (*Client)(nil)
)

// responseFormat pins the JSON shape of responses (query syntax, session secret).
const responseFormat = "1.5.0"

// NewClient creates a REST client. Remote calls carry no client-side timeout;
// they are bounded only by the caller's context.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("database ID is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		databaseID: cfg.DatabaseID,
	}, nil
}

// Endpoint returns the API endpoint without a trailing slash.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// request describes one REST call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	session     string // session secret; replaces the API key when set
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("failed to marshal %s %s payload: %w", method, path, err)
	}
	req.body = bytes.NewReader(data)
	req.contentType = "application/json"
	return req, nil
}

// do executes req and decodes a JSON response into out (which may be nil).
// operation names the call in wrapped errors.
func (c *Client) do(ctx context.Context, operation string, req request, out any) error {
	target := c.endpoint + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", operation, err)
	}

	httpReq.Header.Set("X-Appwrite-Project", c.projectID)
	httpReq.Header.Set("X-Appwrite-Response-Format", responseFormat)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.session != "" {
		httpReq.Header.Set("X-Appwrite-Session", req.session)
	} else if c.apiKey != "" {
		httpReq.Header.Set("X-Appwrite-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return wrapTransportError(err, operation)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("operation", operation).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapTransportError(err, operation)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrapAPIError(parseAPIError(resp.StatusCode, body), operation)
	}

	if out == nil || len(body) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", operation, err)
	}
	return nil
}
