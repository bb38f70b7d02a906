package relational

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/kwsearch/internal/db/gormdb"
	"github.com/kailas-cloud/kwsearch/internal/domain"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
)

// OperatorRepo implements usecase/operator.Repository on search_operators and
// search_operator_paths. Unique indexes enforce name, path set and per-path uniqueness.
type OperatorRepo struct {
	db *gorm.DB
}

// NewOperatorRepo creates an operator repository. Call Migrate first.
func NewOperatorRepo(db *gorm.DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

// Create inserts the operator and its path rows in one transaction.
func (r *OperatorRepo) Create(ctx context.Context, op domop.Operator) error {
	if op.ID() == "" {
		return fmt.Errorf("operator id is required")
	}
	m, paths, err := operatorToModel(op)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return operatorWriteError(err, "operator name or field path set")
		}
		if err := tx.Create(&paths).Error; err != nil {
			return operatorWriteError(err, "field path")
		}
		return nil
	})
}

// Update rewrites the operator row and replaces its path rows.
func (r *OperatorRepo) Update(ctx context.Context, prev, next domop.Operator) error {
	if prev.ID() == "" || prev.ID() != next.ID() {
		return fmt.Errorf("update must keep the operator id")
	}
	m, paths, err := operatorToModel(next)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&operatorModel{}).Where("id = ?", m.ID).Updates(map[string]any{
			"name":             m.Name,
			"path_set_key":     m.PathSetKey,
			"field_paths":      m.FieldPaths,
			"normalized_paths": m.NormalizedPaths,
			"updated_at":       m.UpdatedMs,
		})
		if res.Error != nil {
			return operatorWriteError(res.Error, "operator name or field path set")
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("operator %s: %w", m.ID, domain.ErrNotFound)
		}
		if err := tx.Where("operator_id = ?", m.ID).Delete(&operatorPathModel{}).Error; err != nil {
			return fmt.Errorf("delete operator paths: %w", err)
		}
		if err := tx.Create(&paths).Error; err != nil {
			return operatorWriteError(err, "field path")
		}
		return nil
	})
}

func operatorWriteError(err error, what string) error {
	if gormdb.IsUniqueViolation(err) {
		return fmt.Errorf("%s already used by another operator: %w", what, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("write operator: %w", err)
}

// Get retrieves an operator by id.
func (r *OperatorRepo) Get(ctx context.Context, id string) (domop.Operator, error) {
	return r.first(ctx, "id = ?", id, "operator "+id)
}

// GetByName retrieves an operator by name.
func (r *OperatorRepo) GetByName(ctx context.Context, name string) (domop.Operator, error) {
	return r.first(ctx, "name = ?", name, "operator "+name)
}

// GetByPathSet retrieves an operator by the hash of its normalized path set.
func (r *OperatorRepo) GetByPathSet(ctx context.Context, pathSetKey string) (domop.Operator, error) {
	return r.first(ctx, "path_set_key = ?", pathSetKey, "operator for path set")
}

func (r *OperatorRepo) first(ctx context.Context, cond, arg, what string) (domop.Operator, error) {
	var m operatorModel
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domop.Operator{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return domop.Operator{}, fmt.Errorf("select %s: %w", what, err)
	}
	return operatorFromModel(m)
}

// List returns all operators sorted by name.
func (r *OperatorRepo) List(ctx context.Context) ([]domop.Operator, error) {
	var rows []operatorModel
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	ops := make([]domop.Operator, 0, len(rows))
	for _, m := range rows {
		op, err := operatorFromModel(m)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Delete removes the operator and its path rows.
func (r *OperatorRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&operatorModel{})
		if res.Error != nil {
			return fmt.Errorf("delete operator %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("operator %s: %w", id, domain.ErrNotFound)
		}
		if err := tx.Where("operator_id = ?", id).Delete(&operatorPathModel{}).Error; err != nil {
			return fmt.Errorf("delete operator paths: %w", err)
		}
		return nil
	})
}
