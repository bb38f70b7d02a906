package persistentquery

import (
	"context"
	"path"
	"sort"
	"testing"

	"github.com/kailas-cloud/kwsearch/internal/db"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

type memStore struct {
	data      map[string][]byte
	jsonSetFn func(ctx context.Context, key string) error
}

func (m *memStore) JSONSet(ctx context.Context, key, _ string, data []byte) error {
	if m.jsonSetFn != nil {
		if err := m.jsonSetFn(ctx, key); err != nil {
			return err
		}
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *memStore) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i], _ = m.JSONGet(ctx, k)
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.JSONGet(ctx, key)
}

func (m *memStore) SetNX(_ context.Context, key string, value []byte) error {
	if _, ok := m.data[key]; ok {
		return db.ErrKeyExists
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := &memStore{data: make(map[string][]byte)}
	return New(ms, "kwsearch:"), ms
}

func testQuery(t *testing.T, id, owner, name string, createdAt int64) persisted.Query {
	t.Helper()
	return persisted.Reconstruct(id, owner, query.Text("hello"), []string{"t1"}, name, createdAt)
}
