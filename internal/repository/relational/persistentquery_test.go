package relational

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kwsearch/internal/domain"
	"github.com/kailas-cloud/kwsearch/internal/domain/persisted"
	"github.com/kailas-cloud/kwsearch/internal/domain/query"
)

func TestQueryRepo_CreateAndGet(t *testing.T) {
	repo := NewQueryRepo(setupDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testQuery("q1", "alice", "mine", 10)))

	got, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.OwnerID())
	require.Equal(t, "mine", got.Name())
	require.Equal(t, []string{"t1"}, got.Templates())
	require.EqualValues(t, 10, got.CreatedAt())
	data, err := got.Content().Marshal()
	require.NoError(t, err)
	require.JSONEq(t, `{"doc.author":"Smith"}`, string(data))

	byName, err := repo.GetByName(ctx, "mine")
	require.NoError(t, err)
	require.Equal(t, "q1", byName.ID())
}

func TestQueryRepo_UniqueName(t *testing.T) {
	repo := NewQueryRepo(setupDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testQuery("q1", "alice", "mine", 1)))

	err := repo.Create(ctx, testQuery("q2", "bob", "mine", 2))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	// NULL names never collide.
	require.NoError(t, repo.Create(ctx, testQuery("q3", "bob", "", 3)))
	require.NoError(t, repo.Create(ctx, testQuery("q4", "bob", "", 4)))

	_, err = repo.GetByName(ctx, "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryRepo_Update(t *testing.T) {
	repo := NewQueryRepo(setupDB(t))
	ctx := context.Background()
	prev := testQuery("q1", "alice", "old", 1)
	require.NoError(t, repo.Create(ctx, prev))
	require.NoError(t, repo.Create(ctx, testQuery("q2", "bob", "taken", 2)))

	next := testQuery("q1", "alice", "", 1)
	require.NoError(t, repo.Update(ctx, prev, next))
	got, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Empty(t, got.Name())

	err = repo.Update(ctx, next, testQuery("q1", "alice", "taken", 1))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	ghost := testQuery("q9", "alice", "", 1)
	require.ErrorIs(t, repo.Update(ctx, ghost, ghost), domain.ErrNotFound)
}

func TestQueryRepo_ListAndDelete(t *testing.T) {
	repo := NewQueryRepo(setupDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testQuery("q3", "alice", "", 30)))
	require.NoError(t, repo.Create(ctx, testQuery("q1", "alice", "", 10)))
	require.NoError(t, repo.Create(ctx, testQuery("q2", "bob", "", 20)))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "q1", all[0].ID())
	require.Equal(t, "q3", all[2].ID())

	mine, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	require.NoError(t, repo.Delete(ctx, "q1"))
	require.ErrorIs(t, repo.Delete(ctx, "q1"), domain.ErrNotFound)
}

func TestQueryRepo_EmptyContent(t *testing.T) {
	repo := NewQueryRepo(setupDB(t))
	ctx := context.Background()
	q := persisted.Reconstruct("q1", "alice", query.Empty(), nil, "", 1)
	require.NoError(t, repo.Create(ctx, q))

	got, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.True(t, got.Content().IsEmpty())
	require.NotNil(t, got.Templates())
}
