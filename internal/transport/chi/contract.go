package chi

import (
	"context"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

// OperatorService manages the search operator registry.
type OperatorService interface {
	Register(ctx context.Context, name string, fieldPaths []string) (domop.Operator, error)
	Update(ctx context.Context, id string, patch operatoruc.Patch) (domop.Operator, error)
	Get(ctx context.Context, id string) (domop.Operator, error)
	List(ctx context.Context) ([]domop.Operator, error)
	Delete(ctx context.Context, id string) error
}

// KeywordCodec converts between keyword tokens and filter documents.
type KeywordCodec interface {
	Build(ctx context.Context, tokens []string) (query.Document, error)
	Tokens(ctx context.Context, doc query.Document) []string
}

// QueryService manages persistent keyword queries.
type QueryService interface {
	Create(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error)
	CreateFromKeywords(ctx context.Context, p access.Principal, keywords string, in pquc.CreateInput) (persisted.Query, error)
	Get(ctx context.Context, p access.Principal, id string) (persisted.Query, error)
	GetByName(ctx context.Context, p access.Principal, name string) (persisted.Query, error)
	Keywords(ctx context.Context, p access.Principal, id string) ([]string, error)
	List(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	ListMine(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	Update(ctx context.Context, p access.Principal, id string, patch persisted.Patch) (persisted.Query, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
