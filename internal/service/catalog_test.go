package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
)

func TestCategoryCRUD(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Categories.List(h.ctx, PageRequest{})
	assert.ErrorIs(t, err, ErrNoData)

	c := h.category(t, "Full Body Burn")
	assert.Equal(t, "full_body_burn", c.Name)
	assert.False(t, c.CreatedAt.IsZero())

	updated, err := h.svc.Categories.Update(h.ctx, c.ID, CategoryInput{DisplayName: "Upper Body"})
	require.NoError(t, err)
	assert.Equal(t, "upper_body", updated.Name)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	_, err = h.svc.Categories.Update(h.ctx, 99, CategoryInput{DisplayName: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Categories.Create(h.ctx, CategoryInput{})
	assert.Contains(t, fieldErrors(t, err), "display_name")

	require.NoError(t, h.svc.Categories.Delete(h.ctx, c.ID))
	_, err = h.svc.Categories.Get(h.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPaging(t *testing.T) {
	h := newHarness(t)
	for i := 1; i <= 12; i++ {
		h.category(t, fmt.Sprintf("Category %d", i))
	}

	all, err := h.svc.Categories.List(h.ctx, PageRequest{})
	require.NoError(t, err)
	assert.False(t, all.Paged)
	require.Len(t, all.Items, 12)
	assert.Equal(t, int64(12), all.Items[0].ID, "newest first")

	page, err := h.svc.Categories.List(h.ctx, PageRequest{Page: 2})
	require.NoError(t, err)
	assert.True(t, page.Paged)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 2, page.LastPage())
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Items[0].ID)

	_, err = h.svc.Categories.List(h.ctx, PageRequest{Page: 3, Limit: 10})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEquipmentUniqueNameAndMedia(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Equipments.Create(h.ctx, EquipmentInput{DisplayName: "Dumbbell"})
	assert.Contains(t, fieldErrors(t, err), "image_url")

	e := h.equipment(t, "Resistance  Band")
	assert.Equal(t, "resistance_band", e.Name)
	_, ok := h.files.Get(e.ImageURL)
	assert.True(t, ok)

	_, err = h.svc.Equipments.Create(h.ctx, EquipmentInput{DisplayName: "resistance band", Image: image("image_url")})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, 1, h.files.Len(), "rejected upload must not be stored")

	// Same name on itself is fine; a new image replaces the old object.
	updated, err := h.svc.Equipments.Update(h.ctx, e.ID, EquipmentInput{DisplayName: "Resistance Band", Image: image("image_url")})
	require.NoError(t, err)
	assert.NotEqual(t, e.ImageURL, updated.ImageURL)
	_, ok = h.files.Get(e.ImageURL)
	assert.False(t, ok)
	assert.Equal(t, 1, h.files.Len())

	require.NoError(t, h.svc.Equipments.Delete(h.ctx, e.ID))
	assert.Zero(t, h.files.Len())
}

func TestEquipmentRejectsWrongMedia(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Equipments.Create(h.ctx, EquipmentInput{DisplayName: "Bench", Image: video("image_url")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "image_url", ve.Field)
}

func TestFocusAreaSlug(t *testing.T) {
	h := newHarness(t)
	f := h.focusArea(t, "Abs & Côre")
	assert.Equal(t, "abs_core", f.Name)
	require.NotNil(t, f.ImageURL)
}

func TestMasterGoalStatus(t *testing.T) {
	h := newHarness(t)
	g, err := h.svc.MasterGoals.Create(h.ctx, MasterGoalInput{DisplayName: "Lose Weight!"})
	require.NoError(t, err)
	assert.Equal(t, "lose_weight", g.Name)
	assert.True(t, g.Status)

	g, err = h.svc.MasterGoals.Update(h.ctx, g.ID, MasterGoalInput{DisplayName: "Lose Weight", Status: ptr(false)})
	require.NoError(t, err)
	assert.False(t, g.Status)

	g, err = h.svc.MasterGoals.Update(h.ctx, g.ID, MasterGoalInput{DisplayName: "Lose Weight"})
	require.NoError(t, err)
	assert.False(t, g.Status, "absent status keeps the stored value")
}

func TestExecutionPoint(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ExecutionPoints.Create(h.ctx, ExecutionPointInput{})
	assert.Contains(t, fieldErrors(t, err), "text")

	p, err := h.svc.ExecutionPoints.Create(h.ctx, ExecutionPointInput{Text: "Keep your back straight", Index: ptr(1)})
	require.NoError(t, err)
	p, err = h.svc.ExecutionPoints.Update(h.ctx, p.ID, ExecutionPointInput{Text: "Breathe out"})
	require.NoError(t, err)
	assert.Equal(t, "Breathe out", p.Text)
	require.NotNil(t, p.Index)
	assert.Equal(t, 1, *p.Index)
}
