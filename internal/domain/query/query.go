// Package query models the structured filter document produced by keyword search:
// a MongoDB-style nesting of $text, $or and $and clauses.
package query

import (
	"encoding/json"
	"fmt"
)

// Operator keys understood by the keyword codec.
const (
	KeyText   = "$text"
	KeySearch = "$search"
	KeyOr     = "$or"
	KeyAnd    = "$and"
)

// Document is a filter document. The empty document matches everything.
type Document map[string]any

// Empty returns the match-all document.
func Empty() Document { return Document{} }

// Text builds a full-text clause.
func Text(search string) Document {
	return Document{KeyText: Document{KeySearch: search}}
}

// Eq builds a path equality clause.
func Eq(path, value string) Document {
	return Document{path: value}
}

// Or combines clauses with logical OR.
func Or(clauses ...Document) Document {
	return Document{KeyOr: toList(clauses)}
}

// And combines clauses with logical AND.
func And(clauses ...Document) Document {
	return Document{KeyAnd: toList(clauses)}
}

// IsEmpty reports whether d is the match-all document.
func (d Document) IsEmpty() bool { return len(d) == 0 }

// Marshal serializes the document to JSON.
func (d Document) Marshal() ([]byte, error) {
	if d == nil {
		d = Empty()
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal filter document: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON filter document. Blank input yields the empty document.
func Unmarshal(data []byte) (Document, error) {
	if len(data) == 0 {
		return Empty(), nil
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal filter document: %w", err)
	}
	if d == nil {
		d = Empty()
	}
	return d, nil
}

// AsDocument converts a decoded JSON object or a Document into a Document.
func AsDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case map[string]any:
		return Document(t), true
	default:
		return nil, false
	}
}

// AsList converts a decoded JSON array or a clause slice into a list of values.
func AsList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []Document:
		return toList(t), true
	default:
		return nil, false
	}
}

func toList(clauses []Document) []any {
	out := make([]any, len(clauses))
	for i, c := range clauses {
		out[i] = c
	}
	return out
}
