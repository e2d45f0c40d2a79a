package contacts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryOrdersNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		req := validRequest()
		req.Name = name
		_, err := repo.Create(ctx, &req)
		require.NoError(t, err)
	}

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, "third", subs[0].Name)
	assert.Equal(t, "first", subs[2].Name)
}

func TestInMemoryRepositoryTiesBreakOnID(t *testing.T) {
	repo := NewInMemoryRepository()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		req := validRequest()
		_, err := repo.Create(ctx, &req)
		require.NoError(t, err)
	}
	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, []int64{subs[0].ID, subs[1].ID, subs[2].ID})
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	req := validRequest()
	sub, err := repo.Create(ctx, &req)
	require.NoError(t, err)

	sub.Name = "mutated"
	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.Name)
}

func TestInMemoryRepositoryUpdateStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }

	ctx := context.Background()
	req := validRequest()
	sub, err := repo.Create(ctx, &req)
	require.NoError(t, err)

	// A clock that has gone backwards still leaves updated_at >= created_at.
	repo.now = func() time.Time { return created.Add(-time.Hour) }
	ok, err := repo.UpdateStatus(ctx, sub.ID, StatusConverted)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, got.Status)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	ok, err = repo.UpdateStatus(ctx, 999, StatusArchived)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.UpdateStatus(ctx, sub.ID, Status("spam"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestInMemoryRepositoryUpdatedAtNeverMovesBack(t *testing.T) {
	repo := NewInMemoryRepository()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }

	ctx := context.Background()
	req := validRequest()
	sub, err := repo.Create(ctx, &req)
	require.NoError(t, err)

	later := created.Add(2 * time.Hour)
	repo.now = func() time.Time { return later }
	_, err = repo.UpdateStatus(ctx, sub.ID, StatusContacted)
	require.NoError(t, err)

	repo.now = func() time.Time { return created.Add(time.Hour) }
	_, err = repo.UpdateStatus(ctx, sub.ID, StatusArchived)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got.Status)
	assert.Equal(t, later, got.UpdatedAt)
}

func TestInMemoryRepositoryRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	req := validRequest()
	req.Service = "consulting"

	_, err := repo.Create(ctx, &req)
	assert.ErrorIs(t, err, ErrInvalidService)

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestInMemoryRepositoryConcurrentCreates(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := validRequest()
			_, err := repo.Create(ctx, &req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 50)
	seen := map[int64]bool{}
	for _, s := range subs {
		assert.False(t, seen[s.ID], "duplicate id %d", s.ID)
		seen[s.ID] = true
	}
}
