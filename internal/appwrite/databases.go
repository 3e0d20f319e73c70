package appwrite

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) documentsPath(collectionID string) string {
	return "/databases/" + url.PathEscape(c.databaseID) +
		"/collections/" + url.PathEscape(collectionID) + "/documents"
}

// ListDocuments returns the documents of a collection matching queries, in the order the queries request.
func (c *Client) ListDocuments(ctx context.Context, collectionID string, queries ...Query) ([]Document, error) {
	params := url.Values{}
	for _, q := range queries {
		params.Add("queries[]", q.String())
	}

	var list documentList
	req := request{method: http.MethodGet, path: c.documentsPath(collectionID), query: params}
	if err := c.do(ctx, "listDocuments", req, &list); err != nil {
		return nil, err
	}
	if list.Documents == nil {
		list.Documents = []Document{}
	}
	return list.Documents, nil
}

// CreateDocument stores data as a new document with the given id.
func (c *Client) CreateDocument(ctx context.Context, collectionID, documentID string, data any) (*Document, error) {
	req, err := jsonRequest(http.MethodPost, c.documentsPath(collectionID), map[string]any{
		"documentId": documentID,
		"data":       data,
	})
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := c.do(ctx, "createDocument", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocument retrieves a single document.
func (c *Client) GetDocument(ctx context.Context, collectionID, documentID string) (*Document, error) {
	var doc Document
	req := request{method: http.MethodGet, path: c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)}
	if err := c.do(ctx, "getDocument", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument deletes a single document.
func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	req := request{method: http.MethodDelete, path: c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)}
	return c.do(ctx, "deleteDocument", req, nil)
}
