// Package relational stores operators and persistent queries in SQL tables via gorm.
package relational

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

// Timestamps are unix milliseconds. The fields avoid the names CreatedAt/UpdatedAt
// so gorm does not overwrite them with its own clock.

type operatorModel struct {
	ID              string         `gorm:"primaryKey;size:36"`
	Name            string         `gorm:"size:200;not null;uniqueIndex:idx_search_operators_name"`
	PathSetKey      string         `gorm:"size:64;not null;uniqueIndex:idx_search_operators_path_set"`
	FieldPaths      datatypes.JSON `gorm:"not null"`
	NormalizedPaths datatypes.JSON `gorm:"not null"`
	CreatedMs       int64          `gorm:"column:created_at;not null"`
	UpdatedMs       int64          `gorm:"column:updated_at;not null"`
}

func (operatorModel) TableName() string { return "search_operators" }

// operatorPathModel makes every raw field path unique across operators.
// Column sizes follow domop.MaxFieldPathLength.
// Normalized paths are only indexed; they are unique as a set on search_operators.
type operatorPathModel struct {
	ID             uint   `gorm:"primaryKey"`
	OperatorID     string `gorm:"size:36;not null;index"`
	FieldPath      string `gorm:"size:512;not null;uniqueIndex:idx_search_operator_paths_field"`
	NormalizedPath string `gorm:"size:512;not null;index:idx_search_operator_paths_dot"`
}

func (operatorPathModel) TableName() string { return "search_operator_paths" }

type persistentQueryModel struct {
	ID        string         `gorm:"primaryKey;size:36"`
	OwnerID   string         `gorm:"size:128;not null;index"`
	Content   datatypes.JSON `gorm:"not null"`
	Templates datatypes.JSON `gorm:"not null"`
	Name      *string        `gorm:"size:200;uniqueIndex:idx_persistent_queries_name"`
	CreatedMs int64          `gorm:"column:created_at;not null;index"`
}

func (persistentQueryModel) TableName() string { return "persistent_queries" }

const legacyNormalizedIndex = "idx_search_operator_paths_normalized"

// Migrate creates or updates every table this package uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&operatorModel{}, &operatorPathModel{}, &persistentQueryModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Older schemas made each normalized path unique.
	m := db.Migrator()
	if m.HasIndex(&operatorPathModel{}, legacyNormalizedIndex) {
		if err := m.DropIndex(&operatorPathModel{}, legacyNormalizedIndex); err != nil {
			return fmt.Errorf("drop %s: %w", legacyNormalizedIndex, err)
		}
	}
	return nil
}

func operatorToModel(op domop.Operator) (operatorModel, []operatorPathModel, error) {
	raw, err := json.Marshal(op.FieldPaths())
	if err != nil {
		return operatorModel{}, nil, fmt.Errorf("marshal field paths: %w", err)
	}
	dot, err := json.Marshal(op.NormalizedPaths())
	if err != nil {
		return operatorModel{}, nil, fmt.Errorf("marshal normalized paths: %w", err)
	}

	normalized := op.NormalizedPaths()
	paths := make([]operatorPathModel, 0, len(normalized))
	for i, p := range op.FieldPaths() {
		paths = append(paths, operatorPathModel{OperatorID: op.ID(), FieldPath: p, NormalizedPath: normalized[i]})
	}
	return operatorModel{
		ID:              op.ID(),
		Name:            op.Name(),
		PathSetKey:      op.PathSetKey(),
		FieldPaths:      datatypes.JSON(raw),
		NormalizedPaths: datatypes.JSON(dot),
		CreatedMs:       op.CreatedAt(),
		UpdatedMs:       op.UpdatedAt(),
	}, paths, nil
}

func operatorFromModel(m operatorModel) (domop.Operator, error) {
	var raw, dot []string
	if err := json.Unmarshal(m.FieldPaths, &raw); err != nil {
		return domop.Operator{}, fmt.Errorf("unmarshal field paths of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(m.NormalizedPaths, &dot); err != nil {
		return domop.Operator{}, fmt.Errorf("unmarshal normalized paths of %s: %w", m.ID, err)
	}
	return domop.Reconstruct(m.ID, m.Name, raw, dot, m.CreatedMs, m.UpdatedMs), nil
}

func queryToModel(q persisted.Query) (persistentQueryModel, error) {
	content, err := q.Content().Marshal()
	if err != nil {
		return persistentQueryModel{}, fmt.Errorf("marshal content: %w", err)
	}
	templates, err := json.Marshal(q.Templates())
	if err != nil {
		return persistentQueryModel{}, fmt.Errorf("marshal templates: %w", err)
	}
	m := persistentQueryModel{
		ID:        q.ID(),
		OwnerID:   q.OwnerID(),
		Content:   datatypes.JSON(content),
		Templates: datatypes.JSON(templates),
		CreatedMs: q.CreatedAt(),
	}
	if name := q.Name(); name != "" {
		m.Name = &name
	}
	return m, nil
}

func queryFromModel(m persistentQueryModel) (persisted.Query, error) {
	content, err := query.Unmarshal(m.Content)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("content of %s: %w", m.ID, err)
	}
	templates := []string{}
	if len(m.Templates) > 0 {
		if err := json.Unmarshal(m.Templates, &templates); err != nil {
			return persisted.Query{}, fmt.Errorf("unmarshal templates of %s: %w", m.ID, err)
		}
		if templates == nil {
			templates = []string{}
		}
	}
	var name string
	if m.Name != nil {
		name = *m.Name
	}
	return persisted.Reconstruct(m.ID, m.OwnerID, content, templates, name, m.CreatedMs), nil
}
