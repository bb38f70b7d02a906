package kwsearch

import (
	"context"

	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

// --- operatorUseCase mock ---

type mockOperatorUC struct {
	registerFn  func(ctx context.Context, name string, paths []string) (domop.Operator, error)
	updateFn    func(ctx context.Context, id string, p operatoruc.Patch) (domop.Operator, error)
	getFn       func(ctx context.Context, id string) (domop.Operator, error)
	getByNameFn func(ctx context.Context, name string) (domop.Operator, error)
	listFn      func(ctx context.Context) ([]domop.Operator, error)
	deleteFn    func(ctx context.Context, id string) error
}

func (m *mockOperatorUC) Register(ctx context.Context, name string, paths []string) (domop.Operator, error) {
	return m.registerFn(ctx, name, paths)
}

func (m *mockOperatorUC) Update(ctx context.Context, id string, p operatoruc.Patch) (domop.Operator, error) {
	return m.updateFn(ctx, id, p)
}

func (m *mockOperatorUC) Get(ctx context.Context, id string) (domop.Operator, error) {
	return m.getFn(ctx, id)
}

func (m *mockOperatorUC) GetByName(ctx context.Context, name string) (domop.Operator, error) {
	return m.getByNameFn(ctx, name)
}

func (m *mockOperatorUC) List(ctx context.Context) ([]domop.Operator, error) {
	return m.listFn(ctx)
}

func (m *mockOperatorUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- codecUseCase mock ---

type mockCodecUC struct {
	buildFn  func(ctx context.Context, tokens []string) (query.Document, error)
	tokensFn func(ctx context.Context, doc query.Document) []string
}

func (m *mockCodecUC) Build(ctx context.Context, tokens []string) (query.Document, error) {
	return m.buildFn(ctx, tokens)
}

func (m *mockCodecUC) Tokens(ctx context.Context, doc query.Document) []string {
	return m.tokensFn(ctx, doc)
}

// --- queryUseCase mock ---

type mockQueryUC struct {
	createFn   func(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error)
	fromKWFn   func(ctx context.Context, p access.Principal, kw string, in pquc.CreateInput) (persisted.Query, error)
	getFn      func(ctx context.Context, p access.Principal, id string) (persisted.Query, error)
	getByName  func(ctx context.Context, p access.Principal, name string) (persisted.Query, error)
	keywordsFn func(ctx context.Context, p access.Principal, id string) ([]string, error)
	listFn     func(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	listMineFn func(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	updateFn   func(ctx context.Context, p access.Principal, id string, patch persisted.Patch) (persisted.Query, error)
	deleteFn   func(ctx context.Context, p access.Principal, id string) error
}

func (m *mockQueryUC) Create(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error) {
	return m.createFn(ctx, p, in)
}

func (m *mockQueryUC) CreateFromKeywords(
	ctx context.Context, p access.Principal, kw string, in pquc.CreateInput,
) (persisted.Query, error) {
	return m.fromKWFn(ctx, p, kw, in)
}

func (m *mockQueryUC) Get(ctx context.Context, p access.Principal, id string) (persisted.Query, error) {
	return m.getFn(ctx, p, id)
}

func (m *mockQueryUC) GetByName(ctx context.Context, p access.Principal, name string) (persisted.Query, error) {
	return m.getByName(ctx, p, name)
}

func (m *mockQueryUC) Keywords(ctx context.Context, p access.Principal, id string) ([]string, error) {
	return m.keywordsFn(ctx, p, id)
}

func (m *mockQueryUC) List(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	return m.listFn(ctx, p)
}

func (m *mockQueryUC) ListMine(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	return m.listMineFn(ctx, p)
}

func (m *mockQueryUC) Update(
	ctx context.Context, p access.Principal, id string, patch persisted.Patch,
) (persisted.Query, error) {
	return m.updateFn(ctx, p, id, patch)
}

func (m *mockQueryUC) Delete(ctx context.Context, p access.Principal, id string) error {
	return m.deleteFn(ctx, p, id)
}
