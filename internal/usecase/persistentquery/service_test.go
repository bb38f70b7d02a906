package persistentquery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/access"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

// --- Mocks ---

type memRepo struct {
	byID      map[string]persisted.Query
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]persisted.Query)}
}

func (m *memRepo) nameTaken(q persisted.Query) bool {
	if q.Name() == "" {
		return false
	}
	for id, other := range m.byID {
		if id != q.ID() && other.Name() == q.Name() {
			return true
		}
	}
	return false
}

func (m *memRepo) Create(_ context.Context, q persisted.Query) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.nameTaken(q) {
		return fmt.Errorf("persistent query name: %w", domain.ErrAlreadyExists)
	}
	m.byID[q.ID()] = q
	return nil
}

func (m *memRepo) Update(_ context.Context, _, next persisted.Query) error {
	if m.nameTaken(next) {
		return fmt.Errorf("persistent query name: %w", domain.ErrAlreadyExists)
	}
	m.byID[next.ID()] = next
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (persisted.Query, error) {
	if q, ok := m.byID[id]; ok {
		return q, nil
	}
	return persisted.Query{}, domain.ErrNotFound
}

func (m *memRepo) GetByName(_ context.Context, name string) (persisted.Query, error) {
	for _, q := range m.byID {
		if q.Name() == name {
			return q, nil
		}
	}
	return persisted.Query{}, domain.ErrNotFound
}

func (m *memRepo) List(_ context.Context) ([]persisted.Query, error) {
	out := make([]persisted.Query, 0, len(m.byID))
	for _, q := range m.byID {
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b persisted.Query) int { return strings.Compare(a.ID(), b.ID()) })
	return out, nil
}

func (m *memRepo) ListByOwner(ctx context.Context, ownerID string) ([]persisted.Query, error) {
	all, _ := m.List(ctx)
	out := make([]persisted.Query, 0, len(all))
	for _, q := range all {
		if q.OwnerID() == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// mockCodec records the tokens it was given and returns a fixed filter.
type mockCodec struct {
	buildFn func(ctx context.Context, tokens []string) (query.Document, error)
	tokens  []string
}

func (m *mockCodec) Build(ctx context.Context, tokens []string) (query.Document, error) {
	m.tokens = tokens
	if m.buildFn != nil {
		return m.buildFn(ctx, tokens)
	}
	return query.Text(strings.Join(tokens, " ")), nil
}

func (m *mockCodec) Tokens(_ context.Context, doc query.Document) []string {
	if doc.IsEmpty() {
		return nil
	}
	text, _ := query.AsDocument(doc[query.KeyText])
	s, _ := text[query.KeySearch].(string)
	return []string{s}
}

var (
	alice = access.Principal{UserID: "alice"}
	bob   = access.Principal{UserID: "bob"}
	staff = access.Principal{UserID: "root", Staff: true}
	anon  = access.Anonymous()
)

func newTestService(anonymous bool) (*Service, *memRepo, *mockCodec) {
	repo := newMemRepo()
	codec := &mockCodec{}
	svc := New(repo, access.Policy{AnonymousAccess: anonymous}, codec)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("pq-%d", n)
	}
	return svc, repo, codec
}

// --- Create ---

func TestCreate_OwnedByCaller(t *testing.T) {
	svc, repo, _ := newTestService(false)

	q, err := svc.Create(context.Background(), alice, CreateInput{
		OwnerID:   "mallory",
		Content:   query.Text("hello"),
		Templates: []string{" t1 ", "t1", "t2"},
		Name:      " mine ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ID() != "pq-1" || q.OwnerID() != "alice" || q.Name() != "mine" {
		t.Errorf("got id=%q owner=%q name=%q", q.ID(), q.OwnerID(), q.Name())
	}
	if !slices.Equal(q.Templates(), []string{"t1", "t2"}) {
		t.Errorf("Templates() = %v", q.Templates())
	}
	if _, ok := repo.byID["pq-1"]; !ok {
		t.Error("query not stored")
	}
}

func TestCreate_StaffMayAssignOwner(t *testing.T) {
	svc, _, _ := newTestService(false)
	q, err := svc.Create(context.Background(), staff, CreateInput{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.OwnerID() != "alice" {
		t.Errorf("OwnerID() = %q", q.OwnerID())
	}
	if !q.Content().IsEmpty() {
		t.Errorf("nil content should become empty filter, got %v", q.Content())
	}
}

func TestCreate_Anonymous(t *testing.T) {
	closed, _, _ := newTestService(false)
	if _, err := closed.Create(context.Background(), anon, CreateInput{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	open, _, _ := newTestService(true)
	q, err := open.Create(context.Background(), anon, CreateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.OwnerID() != access.AnonymousOwner {
		t.Errorf("OwnerID() = %q", q.OwnerID())
	}
}

func TestCreate_Errors(t *testing.T) {
	svc, repo, _ := newTestService(false)
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, CreateInput{Name: strings.Repeat("x", persisted.MaxNameLength+1)}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("long name: expected ErrValidation, got %v", err)
	}

	if _, err := svc.Create(ctx, alice, CreateInput{Name: "shared"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Create(ctx, bob, CreateInput{Name: "shared"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("duplicate name: expected ErrAlreadyExists, got %v", err)
	}

	// Unnamed queries never collide.
	for range 2 {
		if _, err := svc.Create(ctx, bob, CreateInput{}); err != nil {
			t.Fatalf("unnamed: %v", err)
		}
	}

	repo.createErr = errors.New("connection refused")
	if _, err := svc.Create(ctx, alice, CreateInput{}); err == nil {
		t.Error("expected store error")
	}
}

// --- Keywords ---

func TestCreateFromKeywords(t *testing.T) {
	svc, _, codec := newTestService(false)

	q, err := svc.CreateFromKeywords(context.Background(), alice, `hello, author:Smith, "a,b"`,
		CreateInput{Content: query.Text("ignored"), Name: "kw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hello", "author:Smith", `"a,b"`}
	if !slices.Equal(codec.tokens, want) {
		t.Errorf("tokens = %q, want %q", codec.tokens, want)
	}
	if q.OwnerID() != "alice" || q.Name() != "kw" {
		t.Errorf("unexpected query: owner=%q name=%q", q.OwnerID(), q.Name())
	}
	text, _ := query.AsDocument(q.Content()[query.KeyText])
	if text[query.KeySearch] != `hello author:Smith "a,b"` {
		t.Errorf("content = %v, want the built filter", q.Content())
	}
}

func TestCreateFromKeywords_BuildError(t *testing.T) {
	svc, repo, codec := newTestService(false)
	codec.buildFn = func(context.Context, []string) (query.Document, error) {
		return nil, errors.New("store down")
	}

	if _, err := svc.CreateFromKeywords(context.Background(), alice, "x", CreateInput{}); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.byID) != 0 {
		t.Error("nothing should be stored when build fails")
	}
}

func TestKeywords(t *testing.T) {
	svc, _, _ := newTestService(false)
	ctx := context.Background()
	q, _ := svc.Create(ctx, alice, CreateInput{Content: query.Text("hello")})

	got, err := svc.Keywords(ctx, alice, q.ID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"hello"}) {
		t.Errorf("Keywords() = %q", got)
	}

	if _, err := svc.Keywords(ctx, bob, q.ID()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// --- Read access ---

func TestGet_Access(t *testing.T) {
	tests := []struct {
		name      string
		anonymous bool
		caller    access.Principal
		wantErr   error
	}{
		{"owner", false, alice, nil},
		{"staff", false, staff, nil},
		{"other user", false, bob, domain.ErrForbidden},
		{"anonymous closed", false, anon, domain.ErrForbidden},
		{"anonymous open", true, anon, nil},
		{"other user open", true, bob, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(tt.anonymous)
			ctx := context.Background()
			q, err := svc.Create(ctx, alice, CreateInput{Name: "mine"})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			_, err = svc.Get(ctx, tt.caller, q.ID())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Get: expected %v, got %v", tt.wantErr, err)
			}
			_, err = svc.GetByName(ctx, tt.caller, "mine")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetByName: expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService(false)
	if _, err := svc.Get(context.Background(), staff, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByName(context.Background(), staff, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Listing ---

func TestList(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()
	for _, p := range []access.Principal{alice, bob, alice} {
		if _, err := svc.Create(ctx, p, CreateInput{}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := svc.List(ctx, staff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d, want 3", len(all))
	}
	if _, err := svc.List(ctx, alice); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-staff List: expected ErrForbidden, got %v", err)
	}

	mine, err := svc.ListMine(ctx, alice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListMine() returned %d, want 2", len(mine))
	}
	if _, err := svc.ListMine(ctx, anon); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous ListMine: expected ErrUnauthenticated, got %v", err)
	}
}

// --- Update / Delete ---

func TestUpdate(t *testing.T) {
	svc, _, _ := newTestService(false)
	ctx := context.Background()
	q, _ := svc.Create(ctx, alice, CreateInput{Content: query.Text("old"), Name: "old"})

	name := "new"
	got, err := svc.Update(ctx, alice, q.ID(), persisted.Patch{Content: query.Text("new"), Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "new" || got.OwnerID() != "alice" || got.ID() != q.ID() {
		t.Errorf("unexpected query: %q %q %q", got.Name(), got.OwnerID(), got.ID())
	}
	if got.CreatedAt() != q.CreatedAt() {
		t.Error("createdAt changed")
	}

	same, err := svc.Update(ctx, alice, q.ID(), persisted.Patch{})
	if err != nil || same.Name() != "new" {
		t.Errorf("empty patch: %q, %v", same.Name(), err)
	}
}

func TestUpdate_Errors(t *testing.T) {
	svc, _, _ := newTestService(true)
	ctx := context.Background()
	q, _ := svc.Create(ctx, alice, CreateInput{Name: "a"})
	if _, err := svc.Create(ctx, bob, CreateInput{Name: "b"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	name := "b"
	if _, err := svc.Update(ctx, alice, q.ID(), persisted.Patch{Name: &name}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("rename onto taken name: expected ErrAlreadyExists, got %v", err)
	}
	long := strings.Repeat("x", persisted.MaxNameLength+1)
	if _, err := svc.Update(ctx, alice, q.ID(), persisted.Patch{Name: &long}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("long name: expected ErrValidation, got %v", err)
	}
	// Anonymous access opens reads, never writes.
	if _, err := svc.Update(ctx, anon, q.ID(), persisted.Patch{Name: &long}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("anonymous update: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, bob, q.ID(), persisted.Patch{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other user update: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, alice, "missing", persisted.Patch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService(false)
	ctx := context.Background()
	q, _ := svc.Create(ctx, alice, CreateInput{})

	if err := svc.Delete(ctx, bob, q.ID()); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other user delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, staff, q.ID()); err != nil {
		t.Fatalf("staff delete: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("query not removed")
	}
	if err := svc.Delete(ctx, alice, q.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
