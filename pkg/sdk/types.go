package kwsearch

import (
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

// Filter is a filter document as stored and sent to the search backend.
type Filter = map[string]any

// Operator maps a keyword prefix to one or more XPath field paths.
type Operator struct {
	ID              string
	Name            string
	FieldPaths      []string
	NormalizedPaths []string
	CreatedAt       int64 // unix milliseconds
	UpdatedAt       int64
}

// OperatorPatch is a partial operator update. Nil fields are unchanged.
type OperatorPatch struct {
	Name       *string
	FieldPaths []string
}

// Principal identifies the caller of persistent query operations.
type Principal struct {
	UserID string
	Staff  bool
}

// User returns a regular principal.
func User(id string) Principal { return Principal{UserID: id} }

// Staff returns a principal with staff rights.
func Staff(id string) Principal { return Principal{UserID: id, Staff: true} }

// Anonymous returns the principal for callers without a user.
func Anonymous() Principal { return Principal{} }

// PersistentQuery is a saved keyword search.
type PersistentQuery struct {
	ID        string
	Owner     string
	Filter    Filter
	Templates []string
	Name      string
	CreatedAt int64 // unix milliseconds
}

// NewQuery describes a persistent query to create.
// Owner is honoured for staff callers only.
type NewQuery struct {
	Filter    Filter
	Templates []string
	Name      string
	Owner     string
}

// QueryPatch is a partial query update. Nil fields are unchanged.
type QueryPatch struct {
	Filter    Filter
	Templates []string
	Name      *string
}

func fromInternalOperator(op domop.Operator) Operator {
	return Operator{
		ID:              op.ID(),
		Name:            op.Name(),
		FieldPaths:      op.FieldPaths(),
		NormalizedPaths: op.NormalizedPaths(),
		CreatedAt:       op.CreatedAt(),
		UpdatedAt:       op.UpdatedAt(),
	}
}

func fromInternalQuery(q persisted.Query) PersistentQuery {
	out := PersistentQuery{
		ID:        q.ID(),
		Owner:     q.OwnerID(),
		Filter:    Filter(q.Content()),
		Templates: q.Templates(),
		Name:      q.Name(),
		CreatedAt: q.CreatedAt(),
	}
	if out.Filter == nil {
		out.Filter = Filter{}
	}
	if out.Templates == nil {
		out.Templates = []string{}
	}
	return out
}

func fromInternalQueries(qs []persisted.Query) []PersistentQuery {
	out := make([]PersistentQuery, len(qs))
	for i, q := range qs {
		out[i] = fromInternalQuery(q)
	}
	return out
}

func toDocument(f Filter) query.Document {
	if f == nil {
		return nil
	}
	return query.Document(f)
}
