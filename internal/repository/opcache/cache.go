// Package opcache puts an in-process TTL cache in front of an operator repository.
package opcache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/metrics"
	"github.com/kailas-cloud/kwsearch/internal/usecase/operator"
)

// DefaultCapacity bounds the number of cached lookups.
const DefaultCapacity = 4096

// Repo caches Get, GetByName and GetByPathSet.
// Every write through Repo drops the whole cache; writes made by other
// processes become visible after at most one TTL.
//
// A lookup whose load overlaps a write is returned but not cached: writes
// bump gen before and after the inner call, and lookup only stores a result
// if gen is unchanged since the load started.
type Repo struct {
	inner operator.Repository
	cache *ttlcache.Cache[string, domop.Operator]

	mu  sync.Mutex
	gen uint64
}

// New wraps inner. A non-positive ttl disables caching.
func New(inner operator.Repository, ttl time.Duration) *Repo {
	if ttl <= 0 {
		return &Repo{inner: inner}
	}
	cache := ttlcache.New[string, domop.Operator](
		ttlcache.WithTTL[string, domop.Operator](ttl),
		ttlcache.WithCapacity[string, domop.Operator](DefaultCapacity),
		ttlcache.WithDisableTouchOnHit[string, domop.Operator](),
	)
	return &Repo{inner: inner, cache: cache}
}

// Start runs expired item cleanup until Stop is called. It blocks.
func (r *Repo) Start() {
	if r.cache != nil {
		r.cache.Start()
	}
}

// Stop ends the cleanup loop started by Start.
func (r *Repo) Stop() {
	if r.cache != nil {
		r.cache.Stop()
	}
}

// Create implements operator.Repository.
func (r *Repo) Create(ctx context.Context, op domop.Operator) error {
	r.invalidate()
	defer r.invalidate()
	return r.inner.Create(ctx, op)
}

// Update implements operator.Repository.
func (r *Repo) Update(ctx context.Context, prev, next domop.Operator) error {
	r.invalidate()
	defer r.invalidate()
	return r.inner.Update(ctx, prev, next)
}

// Delete implements operator.Repository.
func (r *Repo) Delete(ctx context.Context, id string) error {
	r.invalidate()
	defer r.invalidate()
	return r.inner.Delete(ctx, id)
}

// List is never cached.
func (r *Repo) List(ctx context.Context) ([]domop.Operator, error) {
	return r.inner.List(ctx)
}

// Get implements operator.Repository.
func (r *Repo) Get(ctx context.Context, id string) (domop.Operator, error) {
	return r.lookup("id:"+id, func() (domop.Operator, error) { return r.inner.Get(ctx, id) })
}

// GetByName implements operator.Repository.
func (r *Repo) GetByName(ctx context.Context, name string) (domop.Operator, error) {
	return r.lookup("name:"+name, func() (domop.Operator, error) { return r.inner.GetByName(ctx, name) })
}

// GetByPathSet implements operator.Repository.
func (r *Repo) GetByPathSet(ctx context.Context, pathSetKey string) (domop.Operator, error) {
	return r.lookup("set:"+pathSetKey, func() (domop.Operator, error) {
		return r.inner.GetByPathSet(ctx, pathSetKey)
	})
}

// lookup caches successful results only.
func (r *Repo) lookup(key string, load func() (domop.Operator, error)) (domop.Operator, error) {
	if r.cache == nil {
		return load()
	}
	if item := r.cache.Get(key); item != nil {
		metrics.OperatorCacheTotal.WithLabelValues("hit").Inc()
		return item.Value(), nil
	}
	metrics.OperatorCacheTotal.WithLabelValues("miss").Inc()

	gen := r.generation()
	op, err := load()
	if err != nil {
		return domop.Operator{}, err
	}

	r.mu.Lock()
	if r.gen == gen {
		r.cache.Set(key, op, ttlcache.DefaultTTL)
	}
	r.mu.Unlock()
	return op, nil
}

func (r *Repo) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Repo) invalidate() {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	r.gen++
	r.cache.DeleteAll()
	r.mu.Unlock()
}

// Len returns the number of cached lookups.
func (r *Repo) Len() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
