package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/repository/memory"
)

func TestHomeFeed(t *testing.T) {
	h := newHarness(t)
	ex := h.exercises(t, 5)
	fa := h.focusArea(t, "Core")
	cat := h.category(t, "Strength")
	empty := h.category(t, "Yoga")

	var workoutIDs []int64
	for i := 0; i < 4; i++ {
		workoutIDs = append(workoutIDs, h.workout(t, "Workout", ex...).ID)
	}
	_, err := h.svc.Pivots["category-workouts"].Sync(h.ctx, cat.ID, workoutIDs)
	require.NoError(t, err)

	feed, err := h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	require.Len(t, feed.FocusAreas, 1)
	assert.Equal(t, fa.ID, feed.FocusAreas[0].ID)

	require.Len(t, feed.Categories, 2)
	assert.Equal(t, cat.ID, feed.Categories[0].ID)
	assert.Equal(t, empty.ID, feed.Categories[1].ID)
	assert.Empty(t, feed.Categories[1].Workouts)

	workouts := feed.Categories[0].Workouts
	require.Len(t, workouts, HomeFeedLimit)
	assert.Equal(t, workoutIDs[3], workouts[0].ID)
	assert.Equal(t, workoutIDs[1], workouts[2].ID)
	for _, w := range workouts {
		require.Len(t, w.Exercises, HomeFeedLimit)
		assert.Equal(t, ex[4], w.Exercises[0].ID)
	}
}

func TestHomeFeedCacheInvalidation(t *testing.T) {
	h := newHarness(t)
	ex := h.exercises(t, 1)
	cat := h.category(t, "Strength")
	w := h.workout(t, "Morning", ex...)

	feed, err := h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, feed.Categories[0].Workouts)

	// A relationship change drops the cached feed.
	_, err = h.svc.Pivots["category-workouts"].Attach(h.ctx, PivotInput{OwnerID: cat.ID, MemberIDs: []int64{w.ID}})
	require.NoError(t, err)
	feed, err = h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	require.Len(t, feed.Categories[0].Workouts, 1)

	// So does an entity write.
	h.category(t, "Cardio")
	feed, err = h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	assert.Len(t, feed.Categories, 2)

	// Writes that bypass the services are not seen until invalidation.
	require.NoError(t, h.store.Categories().Delete(h.ctx, cat.ID))
	feed, err = h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	assert.Len(t, feed.Categories, 2)

	h.svc.Home.Invalidate(h.ctx)
	feed, err = h.svc.Home.Feed(h.ctx)
	require.NoError(t, err)
	assert.Len(t, feed.Categories, 1)
}

// hookedStore runs onList whenever the home feed lists focus areas.
type hookedStore struct {
	*memory.Store
	onList func()
}

func (s *hookedStore) FocusAreas() repository.EntityRepository[domain.FocusArea] {
	return hookedFocusAreas{EntityRepository: s.Store.FocusAreas(), store: s}
}

type hookedFocusAreas struct {
	repository.EntityRepository[domain.FocusArea]
	store *hookedStore
}

func (r hookedFocusAreas) List(ctx context.Context, q repository.ListQuery) ([]domain.FocusArea, int64, error) {
	if r.store.onList != nil {
		r.store.onList()
	}
	return r.EntityRepository.List(ctx, q)
}

func TestHomeFeedBuiltDuringInvalidationIsNotCached(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	store := &hookedStore{Store: mem}
	home := NewHomeService(store, relation.NewRegistry(mem, nil), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, mem.Categories().Create(ctx, &domain.Category{Name: "old", DisplayName: "Old"}))
	store.onList = func() {
		// A write lands while the feed is being assembled.
		require.NoError(t, mem.Categories().Create(ctx, &domain.Category{Name: "new", DisplayName: "New"}))
		home.Invalidate(ctx)
		store.onList = nil
	}

	first, err := home.Feed(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Categories, 2, "categories are read after the hook")

	second, err := home.Feed(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "the feed built across an invalidation must not be cached")

	third, err := home.Feed(ctx)
	require.NoError(t, err)
	assert.Same(t, second, third)
}
