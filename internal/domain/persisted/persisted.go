// Package persisted holds the shareable keyword query aggregate.
package persisted

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

// MaxNameLength bounds display names.
const MaxNameLength = 200

// Query is a saved keyword search, addressable by id or by its optional unique name.
type Query struct {
	id        string
	ownerID   string
	content   query.Document
	templates []string
	name      string
	createdAt int64
}

// New validates and creates a Query without identity.
func New(ownerID string, content query.Document, templates []string, name string) (Query, error) {
	if ownerID == "" {
		return Query{}, fmt.Errorf("owner is required")
	}
	name = strings.TrimSpace(name)
	if len(name) > MaxNameLength {
		return Query{}, fmt.Errorf("name too long (max %d)", MaxNameLength)
	}
	if content == nil {
		content = query.Empty()
	}
	return Query{
		ownerID:   ownerID,
		content:   content,
		templates: normalizeTemplates(templates),
		name:      name,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Query without validation (storage hydration).
func Reconstruct(
	id, ownerID string, content query.Document, templates []string, name string, createdAt int64,
) Query {
	return Query{
		id:        id,
		ownerID:   ownerID,
		content:   content,
		templates: templates,
		name:      name,
		createdAt: createdAt,
	}
}

// ID returns the id (empty until stored).
func (q Query) ID() string { return q.id }

// OwnerID returns the owner user id, or access.AnonymousOwner.
func (q Query) OwnerID() string { return q.ownerID }

// Content returns the filter document.
func (q Query) Content() query.Document { return q.content }

// Templates returns the referenced field-set ids.
func (q Query) Templates() []string { return slices.Clone(q.templates) }

// Name returns the optional display name.
func (q Query) Name() string { return q.name }

// CreatedAt returns the creation time in unix milliseconds.
func (q Query) CreatedAt() int64 { return q.createdAt }

// WithID returns a copy bound to id.
func (q Query) WithID(id string) Query {
	q.id = id
	return q
}

// Patch holds optional changes. The owner can never be patched.
type Patch struct {
	Content   query.Document
	Templates []string
	Name      *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Content == nil && p.Templates == nil && p.Name == nil
}

// Apply returns a copy of q with the patch applied.
func (q Query) Apply(p Patch) (Query, error) {
	if p.Content != nil {
		q.content = p.Content
	}
	if p.Templates != nil {
		q.templates = normalizeTemplates(p.Templates)
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if len(name) > MaxNameLength {
			return Query{}, fmt.Errorf("name too long (max %d)", MaxNameLength)
		}
		q.name = name
	}
	return q, nil
}

func normalizeTemplates(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
