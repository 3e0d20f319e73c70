package appwrite

import (
	"encoding/json"
)

// Attributes maintained by the backend on every document.
const (
	AttrID        = "$id"
	AttrCreatedAt = "$createdAt"
)

// Query is a single document query in the backend's JSON query syntax.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...any) Query {
	return Query{Method: "equal", Attribute: attribute, Values: values}
}

// OrderDesc sorts results by attribute, newest/largest first.
func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

// Search matches documents whose attribute full-text matches text.
// The attribute must have a full-text index.
func Search(attribute, text string) Query {
	return Query{Method: "search", Attribute: attribute, Values: []any{text}}
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return Query{Method: "limit", Values: []any{n}}
}

// String encodes the query the way the backend expects it in queries[].
func (q Query) String() string {
	data, err := json.Marshal(q)
	if err != nil {
		// Values are strings and ints built by the helpers above.
		return ""
	}
	return string(data)
}
