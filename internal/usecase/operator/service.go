package operator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/logger"
)

// Patch holds optional changes for Update. Nil fields are left as they are.
type Patch struct {
	Name       *string
	FieldPaths []string
}

// Service is the search operator registry.
type Service struct {
	repo  Repository
	newID func() string
}

// New creates a registry service.
func New(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString}
}

// Register creates the operator or, when the name is taken, replaces its paths.
// Normalized paths are always recomputed from fieldPaths.
func (s *Service) Register(ctx context.Context, name string, fieldPaths []string) (domop.Operator, error) {
	op, err := domop.New(name, fieldPaths)
	if err != nil {
		return domop.Operator{}, fmt.Errorf("validate operator: %w: %w", domain.ErrValidation, err)
	}

	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case err == nil:
		op = op.WithIdentity(existing.ID(), existing.CreatedAt())
		if err := s.repo.Update(ctx, existing, op); err != nil {
			return domop.Operator{}, fmt.Errorf("update operator: %w", err)
		}
		logger.FromContext(ctx).Info("operator updated",
			zap.String("operator_id", op.ID()), zap.String("name", op.Name()))
		return op, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domop.Operator{}, fmt.Errorf("get operator: %w", err)
	}

	op = op.WithIdentity(s.newID(), 0)
	if err := s.repo.Create(ctx, op); err != nil {
		return domop.Operator{}, fmt.Errorf("create operator: %w", err)
	}
	logger.FromContext(ctx).Info("operator registered",
		zap.String("operator_id", op.ID()), zap.String("name", op.Name()))
	return op, nil
}

// Update applies a partial change to the operator with the given id.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (domop.Operator, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domop.Operator{}, fmt.Errorf("get operator: %w", err)
	}
	if patch.Name == nil && patch.FieldPaths == nil {
		return existing, nil
	}

	name := existing.Name()
	if patch.Name != nil {
		name = *patch.Name
	}
	paths := existing.FieldPaths()
	if patch.FieldPaths != nil {
		paths = patch.FieldPaths
	}

	op, err := domop.New(name, paths)
	if err != nil {
		return domop.Operator{}, fmt.Errorf("validate operator: %w: %w", domain.ErrValidation, err)
	}
	op = op.WithIdentity(existing.ID(), existing.CreatedAt())

	if err := s.repo.Update(ctx, existing, op); err != nil {
		return domop.Operator{}, fmt.Errorf("update operator: %w", err)
	}
	return op, nil
}

// Get retrieves an operator by id.
func (s *Service) Get(ctx context.Context, id string) (domop.Operator, error) {
	op, err := s.repo.Get(ctx, id)
	if err != nil {
		return domop.Operator{}, fmt.Errorf("get operator: %w", err)
	}
	return op, nil
}

// GetByName retrieves an operator by its keyword prefix.
func (s *Service) GetByName(ctx context.Context, name string) (domop.Operator, error) {
	op, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return domop.Operator{}, fmt.Errorf("get operator by name: %w", err)
	}
	return op, nil
}

// GetByNormalizedPaths finds the operator whose normalized path set equals paths,
// ignoring order and duplicates.
func (s *Service) GetByNormalizedPaths(ctx context.Context, paths []string) (domop.Operator, error) {
	if len(paths) == 0 {
		return domop.Operator{}, fmt.Errorf("get operator by paths: %w", domain.ErrNotFound)
	}
	op, err := s.repo.GetByPathSet(ctx, domop.PathSetKey(paths))
	if err != nil {
		return domop.Operator{}, fmt.Errorf("get operator by paths: %w", err)
	}
	return op, nil
}

// List returns all operators.
func (s *Service) List(ctx context.Context) ([]domop.Operator, error) {
	ops, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	return ops, nil
}

// Delete removes an operator. Saved queries that reference it stop rendering that fragment.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete operator: %w", err)
	}
	logger.FromContext(ctx).Info("operator deleted", zap.String("operator_id", id))
	return nil
}
