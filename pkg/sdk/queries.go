package kwsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domkw "github.com/kailas-cloud/kwsearch/internal/domain/keyword"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

// QueryService manages persistent queries on behalf of one principal.
type QueryService struct {
	principal access.Principal
	svc       queryUseCase
	obs       *observer
}

// Create saves a query with an explicit filter.
func (s *QueryService) Create(ctx context.Context, q NewQuery) (_ PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.create", start, err) }()

	pq, err := s.svc.Create(ctx, s.principal, toCreateInput(q))
	if err != nil {
		return PersistentQuery{}, fmt.Errorf("create query: %w", err)
	}
	return fromInternalQuery(pq), nil
}

// CreateFromKeywords saves a query whose filter is built from keywords. q.Filter is ignored.
func (s *QueryService) CreateFromKeywords(
	ctx context.Context, keywords string, q NewQuery,
) (_ PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.create", start, err) }()

	pq, err := s.svc.CreateFromKeywords(ctx, s.principal, keywords, toCreateInput(q))
	if err != nil {
		return PersistentQuery{}, fmt.Errorf("create query: %w", err)
	}
	return fromInternalQuery(pq), nil
}

// Get retrieves a query by id.
func (s *QueryService) Get(ctx context.Context, id string) (_ PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.get", start, err) }()

	pq, err := s.svc.Get(ctx, s.principal, id)
	if err != nil {
		return PersistentQuery{}, fmt.Errorf("get query: %w", err)
	}
	return fromInternalQuery(pq), nil
}

// GetByName retrieves a query by its display name.
func (s *QueryService) GetByName(ctx context.Context, name string) (_ PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.get_by_name", start, err) }()

	pq, err := s.svc.GetByName(ctx, s.principal, name)
	if err != nil {
		return PersistentQuery{}, fmt.Errorf("get query: %w", err)
	}
	return fromInternalQuery(pq), nil
}

// Keywords renders the stored filter of a query as a keyword string.
func (s *QueryService) Keywords(ctx context.Context, id string) (_ string, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.keywords", start, err) }()

	tokens, err := s.svc.Keywords(ctx, s.principal, id)
	if err != nil {
		return "", fmt.Errorf("query keywords: %w", err)
	}
	return domkw.Join(tokens), nil
}

// ListMine returns the queries owned by the principal.
func (s *QueryService) ListMine(ctx context.Context) (_ []PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.list_mine", start, err) }()

	qs, err := s.svc.ListMine(ctx, s.principal)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return fromInternalQueries(qs), nil
}

// List returns every query. Staff only.
func (s *QueryService) List(ctx context.Context) (_ []PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.list", start, err) }()

	qs, err := s.svc.List(ctx, s.principal)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return fromInternalQueries(qs), nil
}

// Update changes the filter, templates or name of a query. The owner never changes.
func (s *QueryService) Update(ctx context.Context, id string, p QueryPatch) (_ PersistentQuery, err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.update", start, err) }()

	pq, err := s.svc.Update(ctx, s.principal, id, persisted.Patch{
		Content:   toDocument(p.Filter),
		Templates: p.Templates,
		Name:      p.Name,
	})
	if err != nil {
		return PersistentQuery{}, fmt.Errorf("update query: %w", err)
	}
	return fromInternalQuery(pq), nil
}

// Delete removes a query.
func (s *QueryService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("query.delete", start, err) }()

	if err = s.svc.Delete(ctx, s.principal, id); err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	return nil
}

func toCreateInput(q NewQuery) pquc.CreateInput {
	return pquc.CreateInput{
		OwnerID:   q.Owner,
		Content:   toDocument(q.Filter),
		Templates: q.Templates,
		Name:      q.Name,
	}
}
