package keyword

import (
	"context"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
)

// OperatorResolver looks operators up in both directions.
// Misses must wrap domain.ErrNotFound.
type OperatorResolver interface {
	GetByName(ctx context.Context, name string) (domop.Operator, error)
	GetByNormalizedPaths(ctx context.Context, paths []string) (domop.Operator, error)
}
