package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateAccount registers a new account.
func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) (*Account, error) {
	req, err := jsonRequest(http.MethodPost, "/account", map[string]any{
		"userId":   id,
		"email":    email,
		"password": password,
		"name":     name,
	})
	if err != nil {
		return nil, err
	}

	var account Account
	if err := c.do(ctx, "createAccount", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateEmailSession signs in with email and password and returns the session with its secret.
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*Session, error) {
	req, err := jsonRequest(http.MethodPost, "/account/sessions/email", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var session Session
	if err := c.do(ctx, "createEmailSession", req, &session); err != nil {
		return nil, err
	}
	if session.Secret == "" {
		return nil, fmt.Errorf("createEmailSession: response missing session secret (is the API key configured?)")
	}
	return &session, nil
}

// GetAccount returns the account owning the session secret.
func (c *Client) GetAccount(ctx context.Context, secret string) (*Account, error) {
	if secret == "" {
		return nil, fmt.Errorf("getAccount: %w: session secret is required", ErrUnauthorized)
	}

	var account Account
	req := request{method: http.MethodGet, path: "/account", session: secret}
	if err := c.do(ctx, "getAccount", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteSession revokes the session. Pass "current" to revoke the session owning secret.
func (c *Client) DeleteSession(ctx context.Context, secret, sessionID string) error {
	if secret == "" {
		return fmt.Errorf("deleteSession: %w: session secret is required", ErrUnauthorized)
	}
	if sessionID == "" {
		sessionID = "current"
	}

	req := request{
		method:  http.MethodDelete,
		path:    "/account/sessions/" + url.PathEscape(sessionID),
		session: secret,
	}
	return c.do(ctx, "deleteSession", req, nil)
}

// CreateRecovery sends a password recovery email.
func (c *Client) CreateRecovery(ctx context.Context, email, redirectURL string) error {
	req, err := jsonRequest(http.MethodPost, "/account/recovery", map[string]any{
		"email": email,
		"url":   redirectURL,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, "createRecovery", req, nil)
}
