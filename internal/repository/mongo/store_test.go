package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

// newTestStore connects to MONGO_TEST_URI, which must point at a replica set.
// Each test gets its own database, dropped on cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := ConnectDB(ctx, uri)
	require.NoError(t, err)
	s := NewStore(client, fmt.Sprintf("fitness_test_%d", time.Now().UnixNano()))
	require.NoError(t, s.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestEntityRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Categories()

	for _, name := range []string{"legs", "core", "arms"} {
		require.NoError(t, repo.Create(ctx, &domain.Category{Name: name, DisplayName: name}))
	}
	rows, total, err := repo.List(ctx, repository.ListQuery{Desc: true, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "arms", rows[0].Name)

	found, err := repo.FindBy(ctx, "name", "core")
	require.NoError(t, err)
	got, err := repo.GetByID(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, "core", got.DisplayName)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	category := &domain.Category{Name: "strength", DisplayName: "Strength"}
	require.NoError(t, s.Categories().Create(ctx, category))
	var workouts []int64
	for i := 0; i < 3; i++ {
		w := &domain.Workout{Name: fmt.Sprintf("w%d", i), DisplayName: "W", TimeInMin: 10}
		require.NoError(t, s.Workouts().Create(ctx, w))
		workouts = append(workouts, w.ID)
	}

	svc := relation.NewSyncService(domain.CategoryWorkouts, s, relation.NewKeyedMutex())
	current, err := svc.SyncExact(ctx, category.ID, relation.NewIDSet(workouts[0], workouts[1]))
	require.NoError(t, err)
	assert.Equal(t, []int64{workouts[0], workouts[1]}, current.Sorted())

	current, err = svc.SyncExact(ctx, category.ID, relation.NewIDSet(workouts[1], workouts[2]))
	require.NoError(t, err)
	assert.Equal(t, []int64{workouts[1], workouts[2]}, current.Sorted())

	_, err = svc.SyncExact(ctx, category.ID, relation.NewIDSet(999))
	assert.True(t, domain.IsValidation(err))

	boom := errors.New("boom")
	err = s.WithinOwnerLock(ctx, domain.CategoryWorkouts, category.ID, func(ctx context.Context, tx relation.AssociationStore) error {
		require.NoError(t, tx.DeletePairs(ctx, category.ID, relation.NewIDSet(workouts[1])))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	ids, err := s.Associations(domain.CategoryWorkouts).ListMemberIDs(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ids.Len(), "rolled back")

	require.NoError(t, s.Workouts().Delete(ctx, workouts[2]))
	ids, err = s.Associations(domain.CategoryWorkouts).ListMemberIDs(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{workouts[1]}, ids.Sorted())
}

func TestMissingMembersInsideTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	category := &domain.Category{Name: "cardio", DisplayName: "Cardio"}
	require.NoError(t, s.Categories().Create(ctx, category))
	kept := &domain.Workout{Name: "run", DisplayName: "Run"}
	gone := &domain.Workout{Name: "swim", DisplayName: "Swim"}
	require.NoError(t, s.Workouts().Create(ctx, kept))
	require.NoError(t, s.Workouts().Create(ctx, gone))
	require.NoError(t, s.Workouts().Delete(ctx, gone.ID))

	err := s.WithinOwnerLock(ctx, domain.CategoryWorkouts, category.ID, func(ctx context.Context, tx relation.AssociationStore) error {
		missing, err := tx.MissingMembers(ctx, relation.NewIDSet(kept.ID, gone.ID))
		if err != nil {
			return err
		}
		assert.Equal(t, []int64{gone.ID}, missing)
		return nil
	})
	require.NoError(t, err)
}
