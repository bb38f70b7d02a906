package operator

import (
	"context"
	"path"
	"sort"
	"testing"

	"github.com/kailas-cloud/kwsearch/internal/db"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
)

const testPrefix = "kwsearch:"

// memStore is an in-memory implementation of the consumer interface.
// The *Fn fields override single operations to inject failures.
type memStore struct {
	data map[string][]byte

	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	setNXFn   func(ctx context.Context, key string, value []byte) error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) JSONSet(ctx context.Context, key, p string, data []byte) error {
	if m.jsonSetFn != nil {
		if err := m.jsonSetFn(ctx, key, p, data); err != nil {
			return err
		}
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i], _ = m.JSONGet(ctx, k)
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetNX(ctx context.Context, key string, value []byte) error {
	if m.setNXFn != nil {
		if err := m.setNXFn(ctx, key, value); err != nil {
			return err
		}
	}
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

func (m *memStore) count(pattern string) int {
	keys, _ := m.Scan(context.Background(), pattern)
	return len(keys)
}

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, testPrefix), ms
}

func testOperator(t *testing.T, id, name string, paths ...string) domop.Operator {
	t.Helper()
	op, err := domop.New(name, paths)
	if err != nil {
		t.Fatalf("build operator: %v", err)
	}
	return op.WithIdentity(id, 0)
}
