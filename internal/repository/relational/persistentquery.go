package relational

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/kwsearch/internal/db/gormdb"
	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
)

// QueryRepo implements usecase/persistentquery.Repository on persistent_queries.
// name is a nullable unique column, so unnamed queries never collide.
type QueryRepo struct {
	db *gorm.DB
}

// NewQueryRepo creates a persistent query repository. Call Migrate first.
func NewQueryRepo(db *gorm.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

// Create inserts q.
func (r *QueryRepo) Create(ctx context.Context, q persisted.Query) error {
	if q.ID() == "" {
		return fmt.Errorf("persistent query id is required")
	}
	m, err := queryToModel(q)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return queryWriteError(err, q.Name())
	}
	return nil
}

// Update rewrites content, templates and name. The owner column is never touched.
func (r *QueryRepo) Update(ctx context.Context, prev, next persisted.Query) error {
	if prev.ID() == "" || prev.ID() != next.ID() {
		return fmt.Errorf("update must keep the persistent query id")
	}
	m, err := queryToModel(next)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&persistentQueryModel{}).Where("id = ?", m.ID).Updates(map[string]any{
		"content":   m.Content,
		"templates": m.Templates,
		"name":      m.Name,
	})
	if res.Error != nil {
		return queryWriteError(res.Error, next.Name())
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("persistent query %s: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

func queryWriteError(err error, name string) error {
	if gormdb.IsUniqueViolation(err) {
		return fmt.Errorf("persistent query name %q: %w", name, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("write persistent query: %w", err)
}

// Get retrieves a query by id.
func (r *QueryRepo) Get(ctx context.Context, id string) (persisted.Query, error) {
	return r.first(ctx, "id = ?", id, "persistent query "+id)
}

// GetByName retrieves a query by its unique name.
func (r *QueryRepo) GetByName(ctx context.Context, name string) (persisted.Query, error) {
	if name == "" {
		return persisted.Query{}, fmt.Errorf("persistent query with empty name: %w", domain.ErrNotFound)
	}
	return r.first(ctx, "name = ?", name, fmt.Sprintf("persistent query %q", name))
}

func (r *QueryRepo) first(ctx context.Context, cond, arg, what string) (persisted.Query, error) {
	var m persistentQueryModel
	if err := r.db.WithContext(ctx).Where(cond, arg).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return persisted.Query{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return persisted.Query{}, fmt.Errorf("select %s: %w", what, err)
	}
	return queryFromModel(m)
}

// List returns every query, oldest first.
func (r *QueryRepo) List(ctx context.Context) ([]persisted.Query, error) {
	return r.find(r.db.WithContext(ctx))
}

// ListByOwner returns the queries owned by ownerID, oldest first.
func (r *QueryRepo) ListByOwner(ctx context.Context, ownerID string) ([]persisted.Query, error) {
	return r.find(r.db.WithContext(ctx).Where("owner_id = ?", ownerID))
}

func (r *QueryRepo) find(tx *gorm.DB) ([]persisted.Query, error) {
	var rows []persistentQueryModel
	if err := tx.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list persistent queries: %w", err)
	}
	out := make([]persisted.Query, 0, len(rows))
	for _, m := range rows {
		q, err := queryFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Delete removes a query by id.
func (r *QueryRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&persistentQueryModel{})
	if res.Error != nil {
		return fmt.Errorf("delete persistent query %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("persistent query %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
