package persistentquery

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

type queryDoc struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Content   json.RawMessage `json:"content"`
	Templates []string        `json:"templates"`
	Name      string          `json:"name,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

func queryToJSON(q persisted.Query) ([]byte, error) {
	content, err := q.Content().Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	data, err := json.Marshal(queryDoc{
		ID:        q.ID(),
		OwnerID:   q.OwnerID(),
		Content:   content,
		Templates: q.Templates(),
		Name:      q.Name(),
		CreatedAt: q.CreatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal persistent query: %w", err)
	}
	return data, nil
}

func queryFromJSON(data []byte) (persisted.Query, error) {
	var doc queryDoc
	if len(data) > 0 && data[0] == '[' {
		var docs []queryDoc
		if err := json.Unmarshal(data, &docs); err != nil {
			return persisted.Query{}, fmt.Errorf("unmarshal persistent query: %w", err)
		}
		if len(docs) == 0 {
			return persisted.Query{}, fmt.Errorf("unmarshal persistent query: empty result")
		}
		doc = docs[0]
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return persisted.Query{}, fmt.Errorf("unmarshal persistent query: %w", err)
	}

	content, err := query.Unmarshal(doc.Content)
	if err != nil {
		return persisted.Query{}, fmt.Errorf("unmarshal content: %w", err)
	}
	if doc.Templates == nil {
		doc.Templates = []string{}
	}
	return persisted.Reconstruct(doc.ID, doc.OwnerID, content, doc.Templates, doc.Name, doc.CreatedAt), nil
}
