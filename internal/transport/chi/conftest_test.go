package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	domop "github.com/kailas-cloud/kwsearch/internal/domain/operator"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
	operatoruc "github.com/kailas-cloud/kwsearch/internal/usecase/operator"
	pquc "github.com/kailas-cloud/kwsearch/internal/usecase/persistentquery"
)

// --- Mocks ---

type mockOperators struct {
	registerFn func(ctx context.Context, name string, paths []string) (domop.Operator, error)
	updateFn   func(ctx context.Context, id string, patch operatoruc.Patch) (domop.Operator, error)
	getFn      func(ctx context.Context, id string) (domop.Operator, error)
	listFn     func(ctx context.Context) ([]domop.Operator, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockOperators) Register(ctx context.Context, name string, paths []string) (domop.Operator, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, name, paths)
	}
	return domop.Operator{}, nil
}

func (m *mockOperators) Update(ctx context.Context, id string, patch operatoruc.Patch) (domop.Operator, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return domop.Operator{}, nil
}

func (m *mockOperators) Get(ctx context.Context, id string) (domop.Operator, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domop.Operator{}, domain.ErrNotFound
}

func (m *mockOperators) List(ctx context.Context) ([]domop.Operator, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockOperators) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockCodec struct {
	buildFn  func(ctx context.Context, tokens []string) (query.Document, error)
	tokensFn func(ctx context.Context, doc query.Document) []string
}

func (m *mockCodec) Build(ctx context.Context, tokens []string) (query.Document, error) {
	if m.buildFn != nil {
		return m.buildFn(ctx, tokens)
	}
	return query.Empty(), nil
}

func (m *mockCodec) Tokens(ctx context.Context, doc query.Document) []string {
	if m.tokensFn != nil {
		return m.tokensFn(ctx, doc)
	}
	return nil
}

type mockQueries struct {
	createFn             func(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error)
	createFromKeywordsFn func(ctx context.Context, p access.Principal, kw string, in pquc.CreateInput) (persisted.Query, error)
	getFn                func(ctx context.Context, p access.Principal, id string) (persisted.Query, error)
	getByNameFn          func(ctx context.Context, p access.Principal, name string) (persisted.Query, error)
	keywordsFn           func(ctx context.Context, p access.Principal, id string) ([]string, error)
	listFn               func(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	listMineFn           func(ctx context.Context, p access.Principal) ([]persisted.Query, error)
	updateFn             func(ctx context.Context, p access.Principal, id string, patch persisted.Patch) (persisted.Query, error)
	deleteFn             func(ctx context.Context, p access.Principal, id string) error
}

func (m *mockQueries) Create(ctx context.Context, p access.Principal, in pquc.CreateInput) (persisted.Query, error) {
	return m.createFn(ctx, p, in)
}

func (m *mockQueries) CreateFromKeywords(
	ctx context.Context, p access.Principal, kw string, in pquc.CreateInput,
) (persisted.Query, error) {
	return m.createFromKeywordsFn(ctx, p, kw, in)
}

func (m *mockQueries) Get(ctx context.Context, p access.Principal, id string) (persisted.Query, error) {
	return m.getFn(ctx, p, id)
}

func (m *mockQueries) GetByName(ctx context.Context, p access.Principal, name string) (persisted.Query, error) {
	return m.getByNameFn(ctx, p, name)
}

func (m *mockQueries) Keywords(ctx context.Context, p access.Principal, id string) ([]string, error) {
	return m.keywordsFn(ctx, p, id)
}

func (m *mockQueries) List(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	return m.listFn(ctx, p)
}

func (m *mockQueries) ListMine(ctx context.Context, p access.Principal) ([]persisted.Query, error) {
	return m.listMineFn(ctx, p)
}

func (m *mockQueries) Update(
	ctx context.Context, p access.Principal, id string, patch persisted.Patch,
) (persisted.Query, error) {
	return m.updateFn(ctx, p, id, patch)
}

func (m *mockQueries) Delete(ctx context.Context, p access.Principal, id string) error {
	return m.deleteFn(ctx, p, id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Harness ---

type testDeps struct {
	operators *mockOperators
	codec     *mockCodec
	queries   *mockQueries
	health    *mockHealth
	settings  Settings
}

func newTestDeps() *testDeps {
	return &testDeps{
		operators: &mockOperators{},
		codec:     &mockCodec{},
		queries:   &mockQueries{},
		health:    &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
}

func (d *testDeps) handler() http.Handler {
	srv := NewServer(d.operators, d.codec, d.queries, d.health, d.settings)
	return NewRouter(srv, []Token{
		{Token: "alice-token", UserID: "alice"},
		{Token: "root-token", UserID: "root", Staff: true},
	}, nil)
}

// do sends a request; token may be empty for an anonymous call.
func (d *testDeps) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, BaseURL+path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	d.handler().ServeHTTP(rr, req)
	return rr
}

func testOperator(t *testing.T, id, name string, paths ...string) domop.Operator {
	t.Helper()
	op, err := domop.New(name, paths)
	if err != nil {
		t.Fatalf("build operator: %v", err)
	}
	return op.WithIdentity(id, 0)
}
