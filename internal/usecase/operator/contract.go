package operator

import (
	"context"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
)

// Repository defines the storage contract for search operators.
// Writes fail with domain.ErrAlreadyExists when the name, the normalized path set
// as a whole, or any single raw field path is held by another operator.
type Repository interface {
	Create(ctx context.Context, op domop.Operator) error
	Update(ctx context.Context, prev, next domop.Operator) error
	Get(ctx context.Context, id string) (domop.Operator, error)
	GetByName(ctx context.Context, name string) (domop.Operator, error)
	GetByPathSet(ctx context.Context, pathSetKey string) (domop.Operator, error)
	List(ctx context.Context) ([]domop.Operator, error)
	Delete(ctx context.Context, id string) error
}
