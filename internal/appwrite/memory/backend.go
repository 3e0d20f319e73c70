// Package memory is an in-process stand-in for the hosted backend.
// It implements the appwrite contracts for local development (BACKEND=memory)
// and for tests, including relationship expansion and full-text search on
// indexed attributes.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"Atelie/internal/appwrite"
	"Atelie/internal/core/imageproxy"
)

// Options configures a Backend.
type Options struct {
	// Endpoint and ProjectID are used to build preview and avatar URLs.
	Endpoint  string
	ProjectID string

	// FulltextIndexes lists, per collection, the attributes that support Search queries.
	FulltextIndexes map[string][]string

	// Relations lists, per collection, attributes that reference a document of another
	// collection. They are stored as ids and returned expanded, like the hosted backend does.
	Relations map[string]map[string]string

	// Now overrides the clock used for $createdAt.
	Now func() time.Time

	// PreviewCacheEntries bounds the rendered preview cache. Zero uses the default.
	PreviewCacheEntries int
}

// Backend implements appwrite.Accounts, Databases, Storage and Avatars in memory.
type Backend struct {
	now         func() time.Time
	index       bleve.Index
	processor   imageproxy.Processor
	previews    *imageproxy.Cache
	accounts    map[string]*account
	emails      map[string]string
	sessions    map[string]*appwrite.Session
	collections map[string]map[string]*document
	files       map[string]map[string]*storedFile
	fulltext    map[string]map[string]bool
	relations   map[string]map[string]string
	endpoint    string
	projectID   string
	recoveries  []Recovery
	seq         int64
	mu          sync.RWMutex
}

// Recovery is a recorded password recovery request.
type Recovery struct {
	Email       string
	RedirectURL string
}

type account struct {
	appwrite.Account
	password string
}

type document struct {
	createdAt time.Time
	updatedAt time.Time
	fields    map[string]any
	id        string
	seq       int64
}

type storedFile struct {
	file appwrite.File
	data []byte
}

var (
	_ appwrite.Accounts  = (*Backend)(nil)
	_ appwrite.Databases = (*Backend)(nil)
	_ appwrite.Storage   = (*Backend)(nil)
	_ appwrite.Avatars   = (*Backend)(nil)
)

// New creates an empty backend.
func New(opts Options) (*Backend, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	previews, err := imageproxy.NewCache(opts.PreviewCacheEntries)
	if err != nil {
		_ = index.Close()
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	fulltext := make(map[string]map[string]bool)
	for collection, attrs := range opts.FulltextIndexes {
		fulltext[collection] = make(map[string]bool)
		for _, attr := range attrs {
			fulltext[collection][attr] = true
		}
	}

	relations := make(map[string]map[string]string)
	for collection, attrs := range opts.Relations {
		relations[collection] = make(map[string]string)
		for attr, target := range attrs {
			relations[collection][attr] = target
		}
	}

	return &Backend{
		now:         now,
		index:       index,
		processor:   imageproxy.NewProcessor(),
		previews:    previews,
		accounts:    make(map[string]*account),
		emails:      make(map[string]string),
		sessions:    make(map[string]*appwrite.Session),
		collections: make(map[string]map[string]*document),
		files:       make(map[string]map[string]*storedFile),
		fulltext:    fulltext,
		relations:   relations,
		endpoint:    strings.TrimSuffix(opts.Endpoint, "/"),
		projectID:   opts.ProjectID,
	}, nil
}

// Close releases the search index.
func (b *Backend) Close() error {
	return b.index.Close()
}

// Recoveries returns the recovery requests received so far.
func (b *Backend) Recoveries() []Recovery {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Recovery(nil), b.recoveries...)
}

// CreateAccount registers a new account.
func (b *Backend) CreateAccount(_ context.Context, id, email, password, name string) (*appwrite.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, appwrite.NewStatusError("createAccount", http.StatusBadRequest, "general_argument_invalid",
			"Invalid `password` param: Password must be between 8 and 256 characters long.")
	}
	if _, exists := b.emails[email]; exists {
		return nil, appwrite.NewStatusError("createAccount", http.StatusConflict, "user_already_exists",
			"A user with the same id, email, or phone already exists in this project.")
	}
	if _, exists := b.accounts[id]; exists {
		return nil, appwrite.NewStatusError("createAccount", http.StatusConflict, "user_already_exists",
			"A user with the same id, email, or phone already exists in this project.")
	}

	acc := &account{
		Account: appwrite.Account{
			ID:        id,
			Email:     email,
			Name:      name,
			CreatedAt: b.now().UTC(),
		},
		password: password,
	}
	b.accounts[id] = acc
	b.emails[email] = id

	out := acc.Account
	return &out, nil
}

// CreateEmailSession signs in with email and password.
func (b *Backend) CreateEmailSession(_ context.Context, email, password string) (*appwrite.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok || b.accounts[id].password != password {
		return nil, appwrite.NewStatusError("createEmailSession", http.StatusUnauthorized, "user_invalid_credentials",
			"Invalid credentials. Please check the email and password.")
	}

	session := &appwrite.Session{
		ID:        appwrite.UniqueID(),
		UserID:    id,
		Secret:    appwrite.UniqueID() + appwrite.UniqueID(),
		ExpiresAt: b.now().UTC().Add(365 * 24 * time.Hour),
	}
	b.sessions[session.Secret] = session

	out := *session
	return &out, nil
}

// GetAccount returns the account owning the session secret.
func (b *Backend) GetAccount(_ context.Context, secret string) (*appwrite.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	session, ok := b.sessions[secret]
	if !ok {
		return nil, appwrite.NewStatusError("getAccount", http.StatusUnauthorized, "general_unauthorized_scope",
			"User (role: guests) missing scope (account)")
	}
	out := b.accounts[session.UserID].Account
	return &out, nil
}

// DeleteSession revokes the session owning secret. Only "current" or the session's own id are accepted.
func (b *Backend) DeleteSession(_ context.Context, secret, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[secret]
	if !ok {
		return appwrite.NewStatusError("deleteSession", http.StatusUnauthorized, "general_unauthorized_scope",
			"User (role: guests) missing scope (account)")
	}
	if sessionID != "" && sessionID != "current" && sessionID != session.ID {
		return appwrite.NewStatusError("deleteSession", http.StatusNotFound, "user_session_not_found",
			"The current user session could not be found.")
	}
	delete(b.sessions, secret)
	return nil
}

// CreateRecovery records a recovery request for a known email.
func (b *Backend) CreateRecovery(_ context.Context, email, redirectURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := b.emails[email]; !ok {
		return appwrite.NewStatusError("createRecovery", http.StatusNotFound, "user_not_found",
			"User with the requested ID could not be found.")
	}
	b.recoveries = append(b.recoveries, Recovery{Email: email, RedirectURL: redirectURL})
	return nil
}

// InitialsURL returns the generated-initials avatar URL.
func (b *Backend) InitialsURL(name string) string {
	return appwrite.BuildInitialsURL(b.endpoint, b.projectID, name)
}

// render serialises a document, expanding relationship attributes. Must hold the read lock.
func (b *Backend) render(collectionID string, doc *document, expand bool) (appwrite.Document, error) {
	obj := make(map[string]any, len(doc.fields)+5)
	for k, v := range doc.fields {
		obj[k] = v
	}
	if expand {
		for attr, target := range b.relations[collectionID] {
			refID, ok := doc.fields[attr].(string)
			if !ok {
				continue
			}
			if related, found := b.collections[target][refID]; found {
				nested, err := b.render(target, related, false)
				if err != nil {
					return appwrite.Document{}, err
				}
				obj[attr] = json.RawMessage(nested.Raw)
			}
		}
	}
	obj[appwrite.AttrID] = doc.id
	obj["$collectionId"] = collectionID
	obj[appwrite.AttrCreatedAt] = doc.createdAt.Format(time.RFC3339Nano)
	obj["$updatedAt"] = doc.updatedAt.Format(time.RFC3339Nano)
	obj["$permissions"] = []string{}

	data, err := json.Marshal(obj)
	if err != nil {
		return appwrite.Document{}, fmt.Errorf("encode document %q: %w", doc.id, err)
	}

	var out appwrite.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return appwrite.Document{}, err
	}
	return out, nil
}

// CreateDocument stores data as a new document.
func (b *Backend) CreateDocument(_ context.Context, collectionID, documentID string, data any) (*appwrite.Document, error) {
	fields, err := toFields(data)
	if err != nil {
		return nil, appwrite.NewStatusError("createDocument", http.StatusBadRequest, "document_invalid_structure", err.Error())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	docs, ok := b.collections[collectionID]
	if !ok {
		docs = make(map[string]*document)
		b.collections[collectionID] = docs
	}
	if _, exists := docs[documentID]; exists {
		return nil, appwrite.NewStatusError("createDocument", http.StatusConflict, "document_already_exists",
			"Document with the requested ID already exists.")
	}

	b.seq++
	now := b.now().UTC()
	doc := &document{id: documentID, fields: fields, createdAt: now, updatedAt: now, seq: b.seq}

	for attr := range b.fulltext[collectionID] {
		if text, ok := fields[attr].(string); ok {
			if err := b.index.Index(indexKey(collectionID, attr, documentID), map[string]any{"text": text}); err != nil {
				return nil, appwrite.NewStatusError("createDocument", http.StatusInternalServerError, "general_server_error", err.Error())
			}
		}
	}
	docs[documentID] = doc

	out, err := b.render(collectionID, doc, true)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocument retrieves a single document.
func (b *Backend) GetDocument(_ context.Context, collectionID, documentID string) (*appwrite.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, ok := b.collections[collectionID][documentID]
	if !ok {
		return nil, appwrite.NewStatusError("getDocument", http.StatusNotFound, "document_not_found",
			"Document with the requested ID could not be found.")
	}
	out, err := b.render(collectionID, doc, true)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDocument deletes a single document.
func (b *Backend) DeleteDocument(_ context.Context, collectionID, documentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.collections[collectionID][documentID]; !ok {
		return appwrite.NewStatusError("deleteDocument", http.StatusNotFound, "document_not_found",
			"Document with the requested ID could not be found.")
	}
	delete(b.collections[collectionID], documentID)
	for attr := range b.fulltext[collectionID] {
		if err := b.index.Delete(indexKey(collectionID, attr, documentID)); err != nil {
			return appwrite.NewStatusError("deleteDocument", http.StatusInternalServerError, "general_server_error", err.Error())
		}
	}
	return nil
}

// ListDocuments applies equal, search, orderDesc and limit queries.
func (b *Backend) ListDocuments(_ context.Context, collectionID string, queries ...appwrite.Query) ([]appwrite.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	candidates := make([]*document, 0, len(b.collections[collectionID]))
	for _, doc := range b.collections[collectionID] {
		candidates = append(candidates, doc)
	}
	// Default order is insertion order.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].seq < candidates[j].seq })

	var orderBy string
	limit := -1
	for _, q := range queries {
		switch q.Method {
		case "equal":
			candidates = filter(candidates, func(d *document) bool { return matchesEqual(d, q) })
		case "search":
			text := ""
			if len(q.Values) > 0 {
				text = fmt.Sprint(q.Values[0])
			}
			matched, err := b.search(collectionID, q.Attribute, text)
			if err != nil {
				return nil, err
			}
			candidates = filter(candidates, func(d *document) bool { return matched[d.id] })
		case "orderDesc":
			orderBy = q.Attribute
		case "limit":
			if len(q.Values) > 0 {
				if n, ok := toInt(q.Values[0]); ok {
					limit = n
				}
			}
		default:
			return nil, appwrite.NewStatusError("listDocuments", http.StatusBadRequest, "general_query_invalid",
				fmt.Sprintf("Invalid query method: %s", q.Method))
		}
	}

	if orderBy != "" {
		sort.SliceStable(candidates, func(i, j int) bool {
			return lessDesc(candidates[i], candidates[j], orderBy)
		})
	}
	if limit >= 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	out := make([]appwrite.Document, 0, len(candidates))
	for _, doc := range candidates {
		rendered, err := b.render(collectionID, doc, true)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// search returns the ids of documents whose attribute has a word starting with
// any of the terms in text. Must hold the read lock.
func (b *Backend) search(collectionID, attribute, text string) (map[string]bool, error) {
	if !b.fulltext[collectionID][attribute] {
		return nil, appwrite.NewStatusError("listDocuments", http.StatusBadRequest, "general_query_invalid",
			fmt.Sprintf("Searching by attribute %q requires a fulltext index.", attribute))
	}

	terms := strings.Fields(strings.ToLower(text))
	matched := make(map[string]bool)
	if len(terms) == 0 {
		return matched, nil
	}

	queries := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		pq := bleve.NewPrefixQuery(term)
		pq.SetField("text")
		queries = append(queries, pq)
	}

	total, err := b.index.DocCount()
	if err != nil {
		return nil, appwrite.NewStatusError("listDocuments", http.StatusInternalServerError, "general_server_error", err.Error())
	}
	if total == 0 {
		return matched, nil
	}
	// The index is shared by every collection and attribute, so fetch all hits and filter by key prefix.
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), int(total), 0, false)
	result, err := b.index.Search(req)
	if err != nil {
		return nil, appwrite.NewStatusError("listDocuments", http.StatusInternalServerError, "general_server_error", err.Error())
	}

	prefix := indexKey(collectionID, attribute, "")
	for _, hit := range result.Hits {
		if id, ok := strings.CutPrefix(hit.ID, prefix); ok {
			matched[id] = true
		}
	}
	return matched, nil
}

func indexKey(collectionID, attribute, documentID string) string {
	return collectionID + "\x00" + attribute + "\x00" + documentID
}

func filter(docs []*document, keep func(*document) bool) []*document {
	out := docs[:0:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func matchesEqual(d *document, q appwrite.Query) bool {
	var value any
	switch q.Attribute {
	case appwrite.AttrID:
		value = d.id
	default:
		value = d.fields[q.Attribute]
	}
	for _, want := range q.Values {
		if fmt.Sprint(value) == fmt.Sprint(want) {
			return true
		}
	}
	return false
}

// lessDesc orders a before b when a's attribute is larger. Ties fall back to newer insertion first.
func lessDesc(a, b *document, attribute string) bool {
	switch attribute {
	case appwrite.AttrCreatedAt:
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
	default:
		av, bv := fmt.Sprint(a.fields[attribute]), fmt.Sprint(b.fields[attribute])
		if av != bv {
			return av > bv
		}
	}
	return a.seq > b.seq
}

func toFields(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document data must be an object: %w", err)
	}
	for k := range fields {
		if strings.HasPrefix(k, "$") {
			delete(fields, k)
		}
	}
	return fields, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
