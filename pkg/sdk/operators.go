package kwsearch

import (
	"context"
	"fmt"
	"time"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
)

// OperatorService manages search operators.
type OperatorService struct {
	svc operatorUseCase
	obs *observer
}

// Register creates an operator, or replaces the field paths of the operator with that name.
func (s *OperatorService) Register(
	ctx context.Context, name string, fieldPaths []string,
) (_ Operator, err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.register", start, err) }()

	op, err := s.svc.Register(ctx, name, fieldPaths)
	if err != nil {
		return Operator{}, fmt.Errorf("register operator: %w", err)
	}
	return fromInternalOperator(op), nil
}

// Get retrieves an operator by id.
func (s *OperatorService) Get(ctx context.Context, id string) (_ Operator, err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.get", start, err) }()

	op, err := s.svc.Get(ctx, id)
	if err != nil {
		return Operator{}, fmt.Errorf("get operator: %w", err)
	}
	return fromInternalOperator(op), nil
}

// GetByName retrieves an operator by its keyword prefix.
func (s *OperatorService) GetByName(ctx context.Context, name string) (_ Operator, err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.get_by_name", start, err) }()

	op, err := s.svc.GetByName(ctx, name)
	if err != nil {
		return Operator{}, fmt.Errorf("get operator: %w", err)
	}
	return fromInternalOperator(op), nil
}

// List returns all operators sorted by name.
func (s *OperatorService) List(ctx context.Context) (_ []Operator, err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.list", start, err) }()

	ops, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	out := make([]Operator, len(ops))
	for i, op := range ops {
		out[i] = fromInternalOperator(op)
	}
	return out, nil
}

// Update renames an operator or replaces its field paths.
func (s *OperatorService) Update(
	ctx context.Context, id string, p OperatorPatch,
) (_ Operator, err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.update", start, err) }()

	var op domop.Operator
	op, err = s.svc.Update(ctx, id, operatoruc.Patch{Name: p.Name, FieldPaths: p.FieldPaths})
	if err != nil {
		return Operator{}, fmt.Errorf("update operator: %w", err)
	}
	return fromInternalOperator(op), nil
}

// Delete removes an operator. Stored filters that use it render without its tokens.
func (s *OperatorService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("operator.delete", start, err) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete operator: %w", err)
	}
	return nil
}
