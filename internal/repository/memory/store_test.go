package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

func TestEntityRepository(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	repo := s.Equipments()

	for _, name := range []string{"dumbbell", "kettlebell", "mat"} {
		require.NoError(t, repo.Create(ctx, &domain.Equipment{Name: name, DisplayName: name}))
	}

	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "kettlebell", got.Name)
	assert.Equal(t, now, got.CreatedAt)

	_, err = repo.GetByID(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := repo.FindBy(ctx, "name", "mat")
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.ID)
	_, err = repo.FindBy(ctx, "name", "bench")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindBy(ctx, "nope", "x")
	assert.ErrorIs(t, err, repository.ErrUnknownField)

	t.Run("list pages", func(t *testing.T) {
		rows, total, err := repo.List(ctx, repository.ListQuery{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, rows, 1)
		assert.Equal(t, "mat", rows[0].Name)

		rows, total, err = repo.List(ctx, repository.ListQuery{Desc: true, IDs: []int64{1, 3}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, int64(3), rows[0].ID)
		assert.Equal(t, int64(1), rows[1].ID)

		rows, total, err = repo.List(ctx, repository.ListQuery{IDs: []int64{}})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, rows)
	})

	t.Run("update keeps created_at", func(t *testing.T) {
		later := now.Add(time.Hour)
		s.SetClock(func() time.Time { return later })
		defer s.SetClock(func() time.Time { return now })

		e := &domain.Equipment{Name: "mat_xl", DisplayName: "Mat XL"}
		e.ID = 3
		require.NoError(t, repo.Update(ctx, e))
		got, err := repo.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "mat_xl", got.Name)
		assert.Equal(t, now, got.CreatedAt)
		assert.Equal(t, later, got.UpdatedAt)

		missing := &domain.Equipment{}
		missing.ID = 77
		assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)
	})

	n, err := repo.CountCreatedBetween(ctx, now, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAssociationStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := s.Associations(domain.ExerciseEquipments)

	require.NoError(t, a.InsertPairs(ctx, 1, relation.NewIDSet(10, 11)))
	require.NoError(t, a.InsertPairs(ctx, 2, relation.NewIDSet(11)))

	err := a.InsertPairs(ctx, 1, relation.NewIDSet(12, 11))
	assert.ErrorIs(t, err, domain.ErrDuplicatePair)
	ids, err := a.ListMemberIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids.Sorted(), "failed insert must not leave partial rows")

	byOwner, err := a.ListByOwners(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, byOwner[1].Sorted())
	assert.Equal(t, []int64{11}, byOwner[2].Sorted())
	assert.Equal(t, 0, byOwner[3].Len())

	owners, err := a.ListOwnerIDs(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, owners.Sorted())

	pairs, err := a.ListPairs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, int64(11), pairs[0].MemberID)

	require.NoError(t, a.DeletePairs(ctx, 1, relation.NewIDSet(10, 99)))
	require.NoError(t, a.DeletePairs(ctx, 1, relation.NewIDSet(10)))

	row, err := a.GetPair(ctx, pairs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.OwnerID)
	require.NoError(t, a.DeleteByID(ctx, row.ID))
	assert.ErrorIs(t, a.DeleteByID(ctx, row.ID), domain.ErrNotFound)

	ids, err = a.ListMemberIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len())
}

func TestWithinOwnerLock(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Exercises().Create(ctx, &domain.Exercise{Name: "squat"}))
	kind := domain.ExerciseFocusAreas

	err := s.WithinOwnerLock(ctx, kind, 5, func(context.Context, relation.AssociationStore) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("boom")
	err = s.WithinOwnerLock(ctx, kind, 1, func(ctx context.Context, tx relation.AssociationStore) error {
		require.NoError(t, tx.InsertPairs(ctx, 1, relation.NewIDSet(1, 2)))
		ids, err := tx.ListMemberIDs(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, ids.Len(), "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	ids, err := s.Associations(kind).ListMemberIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, ids.Len(), "rolled back")

	missing, err := s.MissingIDs(ctx, domain.EntityExercises, relation.NewIDSet(1, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, missing)
}
