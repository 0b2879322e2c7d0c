package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
)

func (h *harness) user(t *testing.T) *domain.User {
	t.Helper()
	_, u, err := h.svc.Auth.Register(h.ctx, validRegister())
	require.NoError(t, err)
	return u
}

func (h *harness) goal(t *testing.T, name string) *domain.MasterGoal {
	t.Helper()
	g, err := h.svc.MasterGoals.Create(h.ctx, MasterGoalInput{DisplayName: name})
	require.NoError(t, err)
	return g
}

func detailInput() UserDetailInput {
	return UserDetailInput{
		Gender:               domain.GenderFemale,
		UserName:             "jamie",
		Age:                  ptr(31),
		CurrentWeightType:    "kg",
		CurrentWeight:        ptr(70.5),
		TargetWeightType:     "kg",
		TargetWeight:         ptr(65.0),
		HeightType:           "cm",
		Height:               ptr(170.0),
		IsNotificationEnable: ptr(false),
	}
}

func TestUserDetailStore(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	g1, g2 := h.goal(t, "Lose Weight"), h.goal(t, "Build Muscle")
	fa := h.focusArea(t, "Core")

	in := detailInput()
	in.GoalIDs = []int64{g1.ID, g2.ID}
	in.FocusAreaIDs = []int64{fa.ID}
	res, err := h.svc.UserDetails.Store(h.ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.UserDetail.UserID)
	assert.Equal(t, 31, res.UserDetail.Age)
	assert.False(t, res.User.IsNotificationEnable)
	assert.ElementsMatch(t, []int64{g1.ID, g2.ID}, res.Goals)

	stored, err := h.store.Users().GetByID(h.ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsNotificationEnable)

	_, err = h.svc.UserDetails.Store(h.ctx, u.ID, in)
	assert.ErrorIs(t, err, ErrUserDetailExists)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUserDetailStoreValidation(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	in := detailInput()
	in.Gender = "other"
	in.IsNotificationEnable = nil
	in.GoalIDs = []int64{99}
	_, err := h.svc.UserDetails.Store(h.ctx, u.ID, in)
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "gender")
	assert.Contains(t, fields, "is_notification_enable")

	in = detailInput()
	in.GoalIDs = []int64{99}
	_, err = h.svc.UserDetails.Store(h.ctx, u.ID, in)
	assert.Contains(t, fieldErrors(t, err), "goal_ids")

	// Nothing was stored by the failed attempts.
	_, err = h.store.UserDetails().FindBy(h.ctx, "user_id", u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserDetailUpdate(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)
	g1, g2 := h.goal(t, "Lose Weight"), h.goal(t, "Build Muscle")
	fa := h.focusArea(t, "Core")

	_, err := h.svc.UserDetails.Update(h.ctx, u.ID, detailInput())
	var nf domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "User detail not found. Please create first.", nf.Error())

	in := detailInput()
	in.GoalIDs = []int64{g1.ID}
	in.FocusAreaIDs = []int64{fa.ID}
	_, err = h.svc.UserDetails.Store(h.ctx, u.ID, in)
	require.NoError(t, err)

	t.Run("absent selections are kept", func(t *testing.T) {
		in := detailInput()
		in.Age = ptr(32)
		in.IsNotificationEnable = nil
		res, err := h.svc.UserDetails.Update(h.ctx, u.ID, in)
		require.NoError(t, err)
		assert.Equal(t, 32, res.UserDetail.Age)
		assert.Equal(t, []int64{g1.ID}, res.Goals)
		assert.Equal(t, []int64{fa.ID}, res.FocusAreas)
	})

	t.Run("present selections are replaced", func(t *testing.T) {
		in := detailInput()
		in.GoalIDs = []int64{g2.ID}
		in.FocusAreaIDs = []int64{}
		in.IsNotificationEnable = ptr(true)
		res, err := h.svc.UserDetails.Update(h.ctx, u.ID, in)
		require.NoError(t, err)
		assert.Equal(t, []int64{g2.ID}, res.Goals)
		assert.Empty(t, res.FocusAreas)

		stored, err := h.store.Users().GetByID(h.ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsNotificationEnable)
	})
}

func TestUserProfile(t *testing.T) {
	h := newHarness(t)
	u := h.user(t)

	_, err := h.svc.UserDetails.Profile(h.ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualError(t, err, "User detail not found.")

	g1, g2 := h.goal(t, "Lose Weight"), h.goal(t, "Build Muscle")
	in := detailInput()
	in.GoalIDs = []int64{g1.ID, g2.ID}
	_, err = h.svc.UserDetails.Store(h.ctx, u.ID, in)
	require.NoError(t, err)

	p, err := h.svc.UserDetails.Profile(h.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, p.User.Email)
	require.Len(t, p.Goals, 2)
	assert.Equal(t, g2.ID, p.Goals[0].ID)
	assert.Empty(t, p.FocusAreas)
}
