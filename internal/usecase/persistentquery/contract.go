package persistentquery

import (
	"context"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

// Repository defines the storage contract for persistent queries.
// A non-empty name is globally unique (domain.ErrAlreadyExists).
type Repository interface {
	Create(ctx context.Context, q persisted.Query) error
	Update(ctx context.Context, prev, next persisted.Query) error
	Get(ctx context.Context, id string) (persisted.Query, error)
	GetByName(ctx context.Context, name string) (persisted.Query, error)
	List(ctx context.Context) ([]persisted.Query, error)
	ListByOwner(ctx context.Context, ownerID string) ([]persisted.Query, error)
	Delete(ctx context.Context, id string) error
}

// Authorizer decides who may touch which record. access.Policy is the default.
type Authorizer interface {
	CanRead(p access.Principal, ownerID string) bool
	CanWrite(p access.Principal, ownerID string) bool
	CanCreate(p access.Principal) bool
	CanListAll(p access.Principal) bool
}

// Codec converts keyword strings to filters and back.
type Codec interface {
	Build(ctx context.Context, tokens []string) (query.Document, error)
	Tokens(ctx context.Context, doc query.Document) []string
}
