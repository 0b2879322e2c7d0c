package service

import (
	"context"
	"log/slog"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/storage"
)

type WorkoutInput struct {
	DisplayName string          `json:"display_name" form:"display_name" validate:"required,max=255"`
	Image       *storage.Upload `json:"-" form:"-"`
	IsPopular   *bool           `json:"is_popular" form:"is_popular"`
	KcalBurn    *string         `json:"kcal_burn" form:"kcal_burn" validate:"omitempty,max=50"`
	TimeInMin   *int            `json:"time_in_min" form:"time_in_min" validate:"omitempty,min=1"`
	// ExerciseIDs is nil when the request did not carry the field.
	ExerciseIDs []int64 `json:"exercise_ids" form:"-" validate:"omitempty,dive,gt=0"`
}

// WorkoutDetail is a workout with its exercises, newest first.
type WorkoutDetail struct {
	domain.Workout
	Exercises []domain.Exercise `json:"exercises"`
}

type WorkoutService interface {
	List(ctx context.Context, req PageRequest) (Page[WorkoutDetail], error)
	Get(ctx context.Context, id int64) (*WorkoutDetail, error)
	Create(ctx context.Context, in WorkoutInput) (*WorkoutDetail, error)
	Update(ctx context.Context, id int64, in WorkoutInput) (*WorkoutDetail, error)
	Delete(ctx context.Context, id int64) error
}

type workoutService struct {
	catalog[domain.Workout]
	backend   relation.Backend
	exercises *relation.SyncService
	expand    *relation.Expander[domain.Exercise]
	media     media
	logger    *slog.Logger
}

func NewWorkoutService(store repository.Store, registry *relation.Registry, m media, changed func(ctx context.Context)) WorkoutService {
	sync := registry.For(domain.WorkoutExercises)
	return &workoutService{
		catalog:   newCatalog(store.Workouts(), changed),
		backend:   store,
		exercises: sync,
		expand:    relation.NewExpander(sync.Store(), repository.Loader(store.Exercises())),
		media:     m,
		logger:    m.logger,
	}
}

func (s *workoutService) List(ctx context.Context, req PageRequest) (Page[WorkoutDetail], error) {
	page, err := s.catalog.List(ctx, req)
	if err != nil {
		return Page[WorkoutDetail]{}, err
	}
	details, err := s.withExercises(ctx, page.Items)
	if err != nil {
		return Page[WorkoutDetail]{}, err
	}
	return mapPage(page, details), nil
}

func (s *workoutService) Get(ctx context.Context, id int64) (*WorkoutDetail, error) {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.withExercises(ctx, []domain.Workout{*workout})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *workoutService) Create(ctx context.Context, in WorkoutInput) (*WorkoutDetail, error) {
	// 1. Validate the request, including the fields only create requires.
	err := requireFiles(validateInput(in), map[string]*storage.Upload{"image_url": in.Image})
	var missing []string
	if in.TimeInMin == nil {
		missing = append(missing, "time_in_min")
	}
	if len(in.ExerciseIDs) == 0 {
		missing = append(missing, "exercise_ids")
	}
	if err = addRequired(err, missing...); err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}
	if err := checkMembers(ctx, s.backend, domain.EntityExercises, in.ExerciseIDs, "exercise_ids"); err != nil {
		return nil, err
	}

	// 2. Store the image and the row.
	key, err := s.media.save(ctx, folderWorkouts, in.Image, storage.MediaImage)
	if err != nil {
		return nil, err
	}
	workout := &domain.Workout{
		Name:        domain.WorkoutName(in.DisplayName),
		DisplayName: in.DisplayName,
		ImageURL:    key,
		KcalBurn:    in.KcalBurn,
		TimeInMin:   *in.TimeInMin,
	}
	if in.IsPopular != nil {
		workout.IsPopular = *in.IsPopular
	}
	if err := s.create(ctx, workout); err != nil {
		s.media.discard(ctx, key)
		return nil, err
	}

	// 3. Attach the exercises; undo the row when that fails.
	if err := syncIfPresent(ctx, s.exercises, workout.ID, in.ExerciseIDs, "exercise_ids"); err != nil {
		s.compensate(ctx, workout.ID, key)
		return nil, err
	}
	return s.Get(ctx, workout.ID)
}

func (s *workoutService) Update(ctx context.Context, id int64, in WorkoutInput) (*WorkoutDetail, error) {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}
	if err := checkMembers(ctx, s.backend, domain.EntityExercises, in.ExerciseIDs, "exercise_ids"); err != nil {
		return nil, err
	}

	old := ""
	if in.Image != nil {
		key, err := s.media.save(ctx, folderWorkouts, in.Image, storage.MediaImage)
		if err != nil {
			return nil, err
		}
		old, workout.ImageURL = workout.ImageURL, key
	}
	workout.Name = domain.WorkoutName(in.DisplayName)
	workout.DisplayName = in.DisplayName
	if in.KcalBurn != nil && *in.KcalBurn != "" {
		workout.KcalBurn = in.KcalBurn
	}
	if in.TimeInMin != nil {
		workout.TimeInMin = *in.TimeInMin
	}
	if in.IsPopular != nil {
		workout.IsPopular = *in.IsPopular
	}
	if err := s.update(ctx, workout); err != nil {
		return nil, err
	}
	s.media.discard(ctx, old)

	if err := syncIfPresent(ctx, s.exercises, id, in.ExerciseIDs, "exercise_ids"); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *workoutService) Delete(ctx context.Context, id int64) error {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.media.discard(ctx, workout.ImageURL)
	return nil
}

func (s *workoutService) withExercises(ctx context.Context, workouts []domain.Workout) ([]WorkoutDetail, error) {
	members, err := s.expand.Expand(ctx, idsOf(workouts), 0)
	if err != nil {
		return nil, err
	}
	out := make([]WorkoutDetail, len(workouts))
	for i, w := range workouts {
		out[i] = WorkoutDetail{Workout: w, Exercises: members[w.ID]}
	}
	return out, nil
}

// compensate removes a workout whose exercise sync failed right after creation.
func (s *workoutService) compensate(ctx context.Context, id int64, imageKey string) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back workout", "workout_id", id, "error", err)
		return
	}
	s.media.discard(ctx, imageKey)
}
