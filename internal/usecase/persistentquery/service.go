package persistentquery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domkw "github.com/kailas-cloud/kwsearch/internal/domain/keyword"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	"github.com/kailas-cloud/kwsearch/internal/logger"
)

// CreateInput carries the fields of a new persistent query.
// OwnerID is honoured for staff only; everyone else owns what they create.
type CreateInput struct {
	OwnerID   string
	Content   query.Document
	Templates []string
	Name      string
}

// Service manages shareable keyword queries behind an Authorizer.
type Service struct {
	repo  Repository
	auth  Authorizer
	codec Codec
	newID func() string
}

// New creates a persistent query service.
func New(repo Repository, auth Authorizer, codec Codec) *Service {
	return &Service{repo: repo, auth: auth, codec: codec, newID: uuid.NewString}
}

// Create stores a new query owned by the caller.
func (s *Service) Create(ctx context.Context, p access.Principal, in CreateInput) (persisted.Query, error) {
	if !s.auth.CanCreate(p) {
		return persisted.Query{}, fmt.Errorf("create persistent query: %w", domain.ErrUnauthenticated)
	}
	owner := p.OwnerID()
	if p.Staff && in.OwnerID != "" {
		owner = in.OwnerID
	}

	q, err := persisted.New(owner, in.Content, in.Templates, in.Name)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("validate persistent query: %w: %w", domain.ErrValidation, err)
	}
	q = q.WithID(s.newID())

	if err := s.repo.Create(ctx, q); err != nil {
		return persisted.Query{}, fmt.Errorf("create persistent query: %w", err)
	}
	logger.FromContext(ctx).Debug("persistent query created",
		zap.String("query_id", q.ID()), zap.String("owner_id", q.OwnerID()))
	return q, nil
}

// CreateFromKeywords builds the filter for a search box string and stores it.
// in.Content is replaced by the built filter.
func (s *Service) CreateFromKeywords(
	ctx context.Context, p access.Principal, keywords string, in CreateInput,
) (persisted.Query, error) {
	doc, err := s.codec.Build(ctx, domkw.Split(keywords))
	if err != nil {
		return persisted.Query{}, fmt.Errorf("build filter: %w", err)
	}
	in.Content = doc
	return s.Create(ctx, p, in)
}

// Get returns a query the caller may read.
func (s *Service) Get(ctx context.Context, p access.Principal, id string) (persisted.Query, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("get persistent query: %w", err)
	}
	if !s.auth.CanRead(p, q.OwnerID()) {
		return persisted.Query{}, fmt.Errorf("get persistent query %s: %w", id, domain.ErrForbidden)
	}
	return q, nil
}

// GetByName returns a named query the caller may read.
func (s *Service) GetByName(ctx context.Context, p access.Principal, name string) (persisted.Query, error) {
	q, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("get persistent query by name: %w", err)
	}
	if !s.auth.CanRead(p, q.OwnerID()) {
		return persisted.Query{}, fmt.Errorf("get persistent query %q: %w", name, domain.ErrForbidden)
	}
	return q, nil
}

// Keywords renders the stored filter back to search box tokens.
func (s *Service) Keywords(ctx context.Context, p access.Principal, id string) ([]string, error) {
	q, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.codec.Tokens(ctx, q.Content()), nil
}

// List returns every query (staff only).
func (s *Service) List(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	if !s.auth.CanListAll(p) {
		return nil, fmt.Errorf("list persistent queries: %w", domain.ErrForbidden)
	}
	qs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list persistent queries: %w", err)
	}
	return qs, nil
}

// ListMine returns the caller's own queries.
func (s *Service) ListMine(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	if p.IsAnonymous() {
		return nil, fmt.Errorf("list own persistent queries: %w", domain.ErrUnauthenticated)
	}
	qs, err := s.repo.ListByOwner(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list own persistent queries: %w", err)
	}
	return qs, nil
}

// Update patches content, templates or name. The owner never changes.
func (s *Service) Update(ctx context.Context, p access.Principal, id string, patch persisted.Patch) (persisted.Query, error) {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("get persistent query: %w", err)
	}
	if !s.auth.CanWrite(p, prev.OwnerID()) {
		return persisted.Query{}, fmt.Errorf("update persistent query %s: %w", id, domain.ErrForbidden)
	}
	if patch.IsEmpty() {
		return prev, nil
	}

	next, err := prev.Apply(patch)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("validate persistent query: %w: %w", domain.ErrValidation, err)
	}
	if err := s.repo.Update(ctx, prev, next); err != nil {
		return persisted.Query{}, fmt.Errorf("update persistent query: %w", err)
	}
	return next, nil
}

// Delete removes a query the caller may write.
func (s *Service) Delete(ctx context.Context, p access.Principal, id string) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get persistent query: %w", err)
	}
	if !s.auth.CanWrite(p, q.OwnerID()) {
		return fmt.Errorf("delete persistent query %s: %w", id, domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete persistent query: %w", err)
	}
	return nil
}
