package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
)

func newExerciseInput(name string) ExerciseInput {
	return ExerciseInput{
		DisplayName:    name,
		Image:          image("image_url"),
		MaleVideo:      video("male_video_path"),
		FemaleVideo:    video("female_video_path"),
		ExecutionPoint: ptr("Lower slowly"),
		KeyTips:        ptr("Keep elbows in"),
	}
}

func TestExerciseCreate(t *testing.T) {
	h := newHarness(t)
	chest := h.focusArea(t, "Chest")
	mat := h.equipment(t, "Mat")

	in := newExerciseInput("Push Up")
	in.FocusAreaIDs = []int64{chest.ID}
	in.EquipmentIDs = []int64{mat.ID}
	e, err := h.svc.Exercises.Create(h.ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "push_up", e.Name)
	require.NotNil(t, e.MaleVideoPath)
	_, ok := h.files.Get(*e.MaleVideoPath)
	assert.True(t, ok)
	require.Len(t, e.FocusAreas, 1)
	assert.Equal(t, chest.ID, e.FocusAreas[0].ID)
	require.Len(t, e.Equipments, 1)
	assert.Equal(t, mat.ID, e.Equipments[0].ID)
}

func TestExerciseCreateRequiresMedia(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Exercises.Create(h.ctx, ExerciseInput{DisplayName: "Squat"})
	fields := fieldErrors(t, err)
	for _, f := range []string{"image_url", "male_video_path", "female_video_path", "execution_point", "key_tips"} {
		assert.Contains(t, fields, f)
	}

	in := newExerciseInput("Squat")
	in.MaleVideo = image("male_video_path")
	_, err = h.svc.Exercises.Create(h.ctx, in)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "male_video_path", ve.Field)
	assert.Zero(t, h.files.Len())
}

func TestExerciseListFilter(t *testing.T) {
	h := newHarness(t)
	legs := h.focusArea(t, "Legs")
	arms := h.focusArea(t, "Arms")

	for _, c := range []struct {
		name  string
		areas []int64
	}{
		{"Squat", []int64{legs.ID}},
		{"Curl", []int64{arms.ID}},
		{"Lunge", []int64{legs.ID}},
	} {
		in := newExerciseInput(c.name)
		in.FocusAreaIDs = c.areas
		_, err := h.svc.Exercises.Create(h.ctx, in)
		require.NoError(t, err)
	}

	page, err := h.svc.Exercises.List(h.ctx, ExerciseFilter{FocusAreaID: legs.ID})
	require.NoError(t, err)
	names := []string{}
	for _, e := range page.Items {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"lunge", "squat"}, names)

	other := h.focusArea(t, "Back")
	_, err = h.svc.Exercises.List(h.ctx, ExerciseFilter{FocusAreaID: other.ID})
	assert.ErrorIs(t, err, ErrNoData)

	all, err := h.svc.Exercises.List(h.ctx, ExerciseFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
}

func TestExerciseUpdateReplacesMedia(t *testing.T) {
	h := newHarness(t)
	e, err := h.svc.Exercises.Create(h.ctx, newExerciseInput("Plank"))
	require.NoError(t, err)
	oldImage := *e.ImageURL
	oldMale := *e.MaleVideoPath

	got, err := h.svc.Exercises.Update(h.ctx, e.ID, ExerciseInput{DisplayName: "Side Plank", Image: image("image_url")})
	require.NoError(t, err)
	assert.Equal(t, "side_plank", got.Name)
	assert.NotEqual(t, oldImage, *got.ImageURL)
	assert.Equal(t, oldMale, *got.MaleVideoPath)
	assert.Equal(t, "Lower slowly", got.ExecutionPoint)

	_, ok := h.files.Get(oldImage)
	assert.False(t, ok, "replaced image is deleted")
	assert.Equal(t, 3, h.files.Len())
}
