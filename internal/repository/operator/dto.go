package operator

import (
	"encoding/json"
	"fmt"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
)

// operatorDoc is the JSON document stored per operator.
type operatorDoc struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	FieldPaths      []string `json:"field_paths"`
	NormalizedPaths []string `json:"normalized_paths"`
	PathSetKey      string   `json:"path_set_key"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

func operatorToJSON(op domop.Operator) ([]byte, error) {
	data, err := json.Marshal(operatorDoc{
		ID:              op.ID(),
		Name:            op.Name(),
		FieldPaths:      op.FieldPaths(),
		NormalizedPaths: op.NormalizedPaths(),
		PathSetKey:      op.PathSetKey(),
		CreatedAt:       op.CreatedAt(),
		UpdatedAt:       op.UpdatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal operator: %w", err)
	}
	return data, nil
}

// operatorFromJSON accepts both a bare object and the single-element array JSON.GET returns for "$".
func operatorFromJSON(data []byte) (domop.Operator, error) {
	var doc operatorDoc
	if len(data) > 0 && data[0] == '[' {
		var docs []operatorDoc
		if err := json.Unmarshal(data, &docs); err != nil {
			return domop.Operator{}, fmt.Errorf("unmarshal operator: %w", err)
		}
		if len(docs) == 0 {
			return domop.Operator{}, fmt.Errorf("unmarshal operator: empty result")
		}
		doc = docs[0]
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return domop.Operator{}, fmt.Errorf("unmarshal operator: %w", err)
	}
	return domop.Reconstruct(
		doc.ID, doc.Name, doc.FieldPaths, doc.NormalizedPaths, doc.CreatedAt, doc.UpdatedAt,
	), nil
}
