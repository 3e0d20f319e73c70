// Package appwritemock provides testify mocks of the appwrite contracts.
package appwritemock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"Atelie/internal/appwrite"
)

// Accounts mocks appwrite.Accounts.
type Accounts struct {
	mock.Mock
}

var _ appwrite.Accounts = (*Accounts)(nil)

func (m *Accounts) CreateAccount(ctx context.Context, id, email, password, name string) (*appwrite.Account, error) {
	args := m.Called(ctx, id, email, password, name)
	acc, _ := args.Get(0).(*appwrite.Account)
	return acc, args.Error(1)
}

func (m *Accounts) CreateEmailSession(ctx context.Context, email, password string) (*appwrite.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*appwrite.Session)
	return s, args.Error(1)
}

func (m *Accounts) GetAccount(ctx context.Context, secret string) (*appwrite.Account, error) {
	args := m.Called(ctx, secret)
	acc, _ := args.Get(0).(*appwrite.Account)
	return acc, args.Error(1)
}

func (m *Accounts) DeleteSession(ctx context.Context, secret, sessionID string) error {
	return m.Called(ctx, secret, sessionID).Error(0)
}

func (m *Accounts) CreateRecovery(ctx context.Context, email, redirectURL string) error {
	return m.Called(ctx, email, redirectURL).Error(0)
}

// Databases mocks appwrite.Databases. Queries are matched as a single []appwrite.Query argument.
type Databases struct {
	mock.Mock
}

var _ appwrite.Databases = (*Databases)(nil)

func (m *Databases) ListDocuments(ctx context.Context, collectionID string, queries ...appwrite.Query) ([]appwrite.Document, error) {
	args := m.Called(ctx, collectionID, queries)
	docs, _ := args.Get(0).([]appwrite.Document)
	return docs, args.Error(1)
}

func (m *Databases) CreateDocument(ctx context.Context, collectionID, documentID string, data any) (*appwrite.Document, error) {
	args := m.Called(ctx, collectionID, documentID, data)
	doc, _ := args.Get(0).(*appwrite.Document)
	return doc, args.Error(1)
}

func (m *Databases) GetDocument(ctx context.Context, collectionID, documentID string) (*appwrite.Document, error) {
	args := m.Called(ctx, collectionID, documentID)
	doc, _ := args.Get(0).(*appwrite.Document)
	return doc, args.Error(1)
}

func (m *Databases) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	return m.Called(ctx, collectionID, documentID).Error(0)
}

// Storage mocks appwrite.Storage. FilePreviewURL delegates to the real builder
// with PreviewEndpoint and PreviewProject unless an expectation is set.
type Storage struct {
	mock.Mock
	PreviewEndpoint string
	PreviewProject  string
}

var _ appwrite.Storage = (*Storage)(nil)

func (m *Storage) CreateFile(ctx context.Context, bucketID, fileID string, upload appwrite.Upload) (*appwrite.File, error) {
	args := m.Called(ctx, bucketID, fileID, upload)
	f, _ := args.Get(0).(*appwrite.File)
	return f, args.Error(1)
}

func (m *Storage) FilePreviewURL(bucketID, fileID string, preview appwrite.Preview) string {
	return appwrite.BuildFilePreviewURL(m.PreviewEndpoint, m.PreviewProject, bucketID, fileID, preview)
}

func (m *Storage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	return m.Called(ctx, bucketID, fileID).Error(0)
}

// Avatars is a fixed-endpoint appwrite.Avatars.
type Avatars struct {
	Endpoint string
	Project  string
}

var _ appwrite.Avatars = Avatars{}

func (a Avatars) InitialsURL(name string) string {
	return appwrite.BuildInitialsURL(a.Endpoint, a.Project, name)
}

// NewDocument builds a document the way the backend returns it.
func NewDocument(id string, createdAt time.Time, fields map[string]any) appwrite.Document {
	obj := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		obj[k] = v
	}
	obj[appwrite.AttrID] = id
	obj[appwrite.AttrCreatedAt] = createdAt.UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(obj)
	if err != nil {
		panic(err)
	}
	var doc appwrite.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		panic(err)
	}
	return doc
}
