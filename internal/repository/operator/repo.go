package operator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/db"
	"github.com/kailas-cloud/kwsearch/internal/domain"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/logger"
)

// store is the consumer interface for operators (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/operator.Repository on a JSON document store.
// Uniqueness is enforced with SET NX claim keys that point back at the owning id:
// one for the name, one for the normalized path set and one per raw field path.
type Repo struct {
	store store
	keys  keys
}

// New creates an operator repository. prefix namespaces every key, e.g. "kwsearch:".
func New(s store, prefix string) *Repo {
	return &Repo{store: s, keys: keys{prefix: prefix}}
}

// Create stores a new operator. The operator must already carry its id.
func (r *Repo) Create(ctx context.Context, op domop.Operator) error {
	if op.ID() == "" {
		return fmt.Errorf("operator id is required")
	}
	return r.write(ctx, domop.Operator{}, op)
}

// Update replaces prev with next (same id), moving claims that changed.
func (r *Repo) Update(ctx context.Context, prev, next domop.Operator) error {
	if prev.ID() == "" || prev.ID() != next.ID() {
		return fmt.Errorf("update must keep the operator id")
	}
	return r.write(ctx, prev, next)
}

func (r *Repo) write(ctx context.Context, prev, next domop.Operator) error {
	held := make(map[string]bool)
	if prev.ID() != "" {
		for _, c := range r.claims(prev) {
			held[c.key] = true
		}
	}

	var wanted []claim
	nextKeys := make(map[string]bool)
	for _, c := range r.claims(next) {
		nextKeys[c.key] = true
		if !held[c.key] {
			wanted = append(wanted, c)
		}
	}

	acquired, err := r.acquire(ctx, next.ID(), wanted)
	if err != nil {
		return err
	}

	data, err := operatorToJSON(next)
	if err != nil {
		return errors.Join(err, r.release(ctx, acquired))
	}
	if err := r.store.JSONSet(ctx, r.keys.doc(next.ID()), "$", data); err != nil {
		return errors.Join(fmt.Errorf("json.set operator %s: %w", next.Name(), err), r.release(ctx, acquired))
	}

	var stale []string
	for key := range held {
		if !nextKeys[key] {
			stale = append(stale, key)
		}
	}
	if err := r.release(ctx, stale); err != nil {
		// The document is already written; a leftover claim only blocks reuse of an old value.
		logger.FromContext(ctx).Warn("release stale operator claims",
			zap.String("operator_id", next.ID()), zap.Error(err))
	}
	return nil
}

// Get retrieves an operator by id.
func (r *Repo) Get(ctx context.Context, id string) (domop.Operator, error) {
	data, err := r.store.JSONGet(ctx, r.keys.doc(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domop.Operator{}, fmt.Errorf("operator %s: %w", id, domain.ErrNotFound)
		}
		return domop.Operator{}, fmt.Errorf("json.get operator %s: %w", id, err)
	}
	return operatorFromJSON(data)
}

// GetByName resolves the name claim, then loads the document.
func (r *Repo) GetByName(ctx context.Context, name string) (domop.Operator, error) {
	return r.getByClaim(ctx, r.keys.name(name), "operator "+name)
}

// GetByPathSet resolves an operator by the hash of its normalized path set.
func (r *Repo) GetByPathSet(ctx context.Context, pathSetKey string) (domop.Operator, error) {
	return r.getByClaim(ctx, r.keys.pathSet(pathSetKey), "operator for path set")
}

func (r *Repo) getByClaim(ctx context.Context, key, what string) (domop.Operator, error) {
	id, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domop.Operator{}, fmt.Errorf("%s: %w", what, domain.ErrNotFound)
		}
		return domop.Operator{}, fmt.Errorf("get claim: %w", err)
	}
	return r.Get(ctx, string(id))
}

// List returns all operators sorted by name.
func (r *Repo) List(ctx context.Context) ([]domop.Operator, error) {
	keys, err := r.store.Scan(ctx, r.keys.docPattern())
	if err != nil {
		return nil, fmt.Errorf("scan operators: %w", err)
	}
	if len(keys) == 0 {
		return []domop.Operator{}, nil
	}

	docs, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get multi operators: %w", err)
	}

	ops := make([]domop.Operator, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			continue
		}
		op, err := operatorFromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse operator %s: %w", keys[i], err)
		}
		ops = append(ops, op)
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].Name() < ops[j].Name() })
	return ops, nil
}

// Delete removes the document, then the claims it still owns.
func (r *Repo) Delete(ctx context.Context, id string) error {
	op, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.keys.doc(id)); err != nil {
		return fmt.Errorf("del operator %s: %w", op.Name(), err)
	}

	var owned []string
	for _, c := range r.claims(op) {
		holder, err := r.store.Get(ctx, c.key)
		if err == nil && string(holder) == id {
			owned = append(owned, c.key)
		}
	}
	if err := r.release(ctx, owned); err != nil {
		logger.FromContext(ctx).Warn("release operator claims",
			zap.String("operator_id", id), zap.Error(err))
	}
	return nil
}

type claim struct {
	key  string
	what string
}

func (r *Repo) claims(op domop.Operator) []claim {
	out := []claim{
		{key: r.keys.name(op.Name()), what: fmt.Sprintf("operator name %q", op.Name())},
		{key: r.keys.pathSet(op.PathSetKey()), what: "field path set"},
	}
	for _, p := range op.FieldPaths() {
		out = append(out, claim{key: r.keys.xpath(p), what: fmt.Sprintf("field path %q", p)})
	}
	return out
}

// acquire takes every claim for id or none of them.
// A claim already pointing at id counts as held and is not returned.
func (r *Repo) acquire(ctx context.Context, id string, claims []claim) ([]string, error) {
	var acquired []string
	for _, c := range claims {
		err := r.store.SetNX(ctx, c.key, []byte(id))
		if err == nil {
			acquired = append(acquired, c.key)
			continue
		}
		if errors.Is(err, db.ErrKeyExists) {
			holder, gerr := r.store.Get(ctx, c.key)
			if gerr == nil && string(holder) == id {
				continue
			}
			err = fmt.Errorf("%s already used by another operator: %w", c.what, domain.ErrAlreadyExists)
		} else {
			err = fmt.Errorf("claim %s: %w", c.what, err)
		}
		return nil, errors.Join(err, r.release(ctx, acquired))
	}
	return acquired, nil
}

func (r *Repo) release(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := r.store.Del(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
