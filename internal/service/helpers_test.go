package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository/memory"
	"alcyxob/fitness-content/internal/storage"
)

type harness struct {
	ctx      context.Context
	store    *memory.Store
	files    *storage.MemoryStorage
	registry *relation.Registry
	svc      *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	registry := relation.NewRegistry(store, nil, relation.WithLogger(logger), relation.WithRetryWait(time.Millisecond))
	files := storage.NewMemoryStorage("http://media.test")
	return &harness{
		ctx:      context.Background(),
		store:    store,
		files:    files,
		registry: registry,
		svc: New(Deps{
			Store:         store,
			Registry:      registry,
			Files:         files,
			JWTSecret:     "test-secret",
			JWTExpiration: time.Hour,
			HomeTTL:       time.Minute,
			Logger:        logger,
		}),
	}
}

func image(field string) *storage.Upload {
	return &storage.Upload{Field: field, Filename: "pic.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}
}

func video(field string) *storage.Upload {
	return &storage.Upload{Field: field, Filename: "clip.mp4", ContentType: "video/mp4", Size: 3, Body: strings.NewReader("mp4")}
}

func ptr[T any](v T) *T { return &v }

func (h *harness) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := h.svc.Categories.Create(h.ctx, CategoryInput{DisplayName: name})
	require.NoError(t, err)
	return c
}

func (h *harness) focusArea(t *testing.T, name string) *domain.FocusArea {
	t.Helper()
	f, err := h.svc.FocusAreas.Create(h.ctx, FocusAreaInput{DisplayName: name, Image: image("image_url")})
	require.NoError(t, err)
	return f
}

func (h *harness) equipment(t *testing.T, name string) *domain.Equipment {
	t.Helper()
	e, err := h.svc.Equipments.Create(h.ctx, EquipmentInput{DisplayName: name, Image: image("image_url")})
	require.NoError(t, err)
	return e
}

// exercise stores a bare exercise row without media.
func (h *harness) exercise(t *testing.T, name string) *domain.Exercise {
	t.Helper()
	e := &domain.Exercise{Name: domain.UnderscoreName(name), DisplayName: name, ExecutionPoint: "x", KeyTips: "y"}
	require.NoError(t, h.store.Exercises().Create(h.ctx, e))
	return e
}

func (h *harness) exercises(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = h.exercise(t, fmt.Sprintf("Exercise %d", i+1)).ID
	}
	return ids
}

func (h *harness) workout(t *testing.T, name string, exerciseIDs ...int64) *WorkoutDetail {
	t.Helper()
	w, err := h.svc.Workouts.Create(h.ctx, WorkoutInput{
		DisplayName: name,
		Image:       image("image_url"),
		TimeInMin:   ptr(20),
		ExerciseIDs: exerciseIDs,
	})
	require.NoError(t, err)
	return w
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.FieldErrors()
}
