package persistentquery

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/db"
	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/logger"
)

type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/persistentquery.Repository on a JSON document store.
//
//	{prefix}pquery:doc:{id}          JSON document
//	{prefix}pquery:claim:name:{name} -> id
type Repo struct {
	store  store
	prefix string
}

// New creates a persistent query repository.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) docKey(id string) string    { return r.prefix + "pquery:doc:" + id }
func (r *Repo) nameKey(name string) string { return r.prefix + "pquery:claim:name:" + name }
func (r *Repo) docPattern() string         { return r.prefix + "pquery:doc:*" }

// Create stores q. A non-empty name must not be taken.
func (r *Repo) Create(ctx context.Context, q persisted.Query) error {
	if q.ID() == "" {
		return fmt.Errorf("persistent query id is required")
	}
	if q.Name() != "" {
		if err := r.claimName(ctx, q.ID(), q.Name()); err != nil {
			return err
		}
	}
	if err := r.save(ctx, q); err != nil {
		if q.Name() != "" {
			err = errors.Join(err, r.store.Del(ctx, r.nameKey(q.Name())))
		}
		return err
	}
	return nil
}

// Update replaces prev with next, moving the name claim when it changed.
func (r *Repo) Update(ctx context.Context, prev, next persisted.Query) error {
	if prev.ID() == "" || prev.ID() != next.ID() {
		return fmt.Errorf("update must keep the persistent query id")
	}
	renamed := prev.Name() != next.Name()
	if renamed && next.Name() != "" {
		if err := r.claimName(ctx, next.ID(), next.Name()); err != nil {
			return err
		}
	}
	if err := r.save(ctx, next); err != nil {
		if renamed && next.Name() != "" {
			err = errors.Join(err, r.store.Del(ctx, r.nameKey(next.Name())))
		}
		return err
	}
	if renamed && prev.Name() != "" {
		if err := r.store.Del(ctx, r.nameKey(prev.Name())); err != nil {
			logger.FromContext(ctx).Warn("release persistent query name",
				zap.String("query_id", prev.ID()), zap.Error(err))
		}
	}
	return nil
}

func (r *Repo) claimName(ctx context.Context, id, name string) error {
	err := r.store.SetNX(ctx, r.nameKey(name), []byte(id))
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrKeyExists) {
		holder, gerr := r.store.Get(ctx, r.nameKey(name))
		if gerr == nil && string(holder) == id {
			return nil
		}
		return fmt.Errorf("persistent query name %q: %w", name, domain.ErrAlreadyExists)
	}
	return fmt.Errorf("claim persistent query name: %w", err)
}

func (r *Repo) save(ctx context.Context, q persisted.Query) error {
	data, err := queryToJSON(q)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, r.docKey(q.ID()), "$", data); err != nil {
		return fmt.Errorf("json.set persistent query %s: %w", q.ID(), err)
	}
	return nil
}

// Get retrieves a query by id.
func (r *Repo) Get(ctx context.Context, id string) (persisted.Query, error) {
	data, err := r.store.JSONGet(ctx, r.docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return persisted.Query{}, fmt.Errorf("persistent query %s: %w", id, domain.ErrNotFound)
		}
		return persisted.Query{}, fmt.Errorf("json.get persistent query %s: %w", id, err)
	}
	return queryFromJSON(data)
}

// GetByName resolves the name claim, then loads the document.
func (r *Repo) GetByName(ctx context.Context, name string) (persisted.Query, error) {
	if name == "" {
		return persisted.Query{}, fmt.Errorf("persistent query with empty name: %w", domain.ErrNotFound)
	}
	id, err := r.store.Get(ctx, r.nameKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return persisted.Query{}, fmt.Errorf("persistent query %q: %w", name, domain.ErrNotFound)
		}
		return persisted.Query{}, fmt.Errorf("get name claim: %w", err)
	}
	return r.Get(ctx, string(id))
}

// List returns every query, oldest first.
func (r *Repo) List(ctx context.Context) ([]persisted.Query, error) {
	keys, err := r.store.Scan(ctx, r.docPattern())
	if err != nil {
		return nil, fmt.Errorf("scan persistent queries: %w", err)
	}
	out := make([]persisted.Query, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	docs, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get multi persistent queries: %w", err)
	}
	for i, data := range docs {
		if data == nil {
			continue
		}
		q, err := queryFromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse persistent query %s: %w", keys[i], err)
		}
		out = append(out, q)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt() != out[j].CreatedAt() {
			return out[i].CreatedAt() < out[j].CreatedAt()
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}

// ListByOwner returns the queries owned by ownerID.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]persisted.Query, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]persisted.Query, 0, len(all))
	for _, q := range all {
		if q.OwnerID() == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

// Delete removes the document and releases its name.
func (r *Repo) Delete(ctx context.Context, id string) error {
	q, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.docKey(id)); err != nil {
		return fmt.Errorf("del persistent query %s: %w", id, err)
	}
	if q.Name() == "" {
		return nil
	}
	if holder, err := r.store.Get(ctx, r.nameKey(q.Name())); err == nil && string(holder) == id {
		if err := r.store.Del(ctx, r.nameKey(q.Name())); err != nil {
			logger.FromContext(ctx).Warn("release persistent query name",
				zap.String("query_id", id), zap.Error(err))
		}
	}
	return nil
}
