package service

import (
	"context"
	"log/slog"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/storage"
)

type ExerciseInput struct {
	DisplayName     string          `json:"display_name" form:"display_name" validate:"required,max=255"`
	Image           *storage.Upload `json:"-" form:"-"`
	MaleVideo       *storage.Upload `json:"-" form:"-"`
	FemaleVideo     *storage.Upload `json:"-" form:"-"`
	PreparationText *string         `json:"preparation_text" form:"preparation_text"`
	ExecutionPoint  *string         `json:"execution_point" form:"execution_point"`
	KeyTips         *string         `json:"key_tips" form:"key_tips"`
	Description     *string         `json:"description" form:"description"`
	// Nil id slices mean the request did not carry the field.
	FocusAreaIDs []int64 `json:"focus_area_ids" form:"-" validate:"omitempty,dive,gt=0"`
	EquipmentIDs []int64 `json:"equipment_ids" form:"-" validate:"omitempty,dive,gt=0"`
}

// ExerciseFilter narrows the exercise list.
type ExerciseFilter struct {
	PageRequest
	FocusAreaID int64 `form:"focus_area_id"`
}

// ExerciseDetail is an exercise with its equipment and focus areas.
type ExerciseDetail struct {
	domain.Exercise
	Equipments []domain.Equipment `json:"equipments"`
	FocusAreas []domain.FocusArea `json:"focus_areas"`
}

type ExerciseService interface {
	List(ctx context.Context, filter ExerciseFilter) (Page[ExerciseDetail], error)
	Get(ctx context.Context, id int64) (*ExerciseDetail, error)
	Create(ctx context.Context, in ExerciseInput) (*ExerciseDetail, error)
	Update(ctx context.Context, id int64, in ExerciseInput) (*ExerciseDetail, error)
	Delete(ctx context.Context, id int64) error
}

type exerciseService struct {
	catalog[domain.Exercise]
	backend          relation.Backend
	focusAreas       *relation.SyncService
	equipments       *relation.SyncService
	expandFocusAreas *relation.Expander[domain.FocusArea]
	expandEquipments *relation.Expander[domain.Equipment]
	media            media
	logger           *slog.Logger
}

func NewExerciseService(store repository.Store, registry *relation.Registry, m media, changed func(ctx context.Context)) ExerciseService {
	focusAreas := registry.For(domain.ExerciseFocusAreas)
	equipments := registry.For(domain.ExerciseEquipments)
	return &exerciseService{
		catalog:          newCatalog(store.Exercises(), changed),
		backend:          store,
		focusAreas:       focusAreas,
		equipments:       equipments,
		expandFocusAreas: relation.NewExpander(focusAreas.Store(), repository.Loader(store.FocusAreas())),
		expandEquipments: relation.NewExpander(equipments.Store(), repository.Loader(store.Equipments())),
		media:            m,
		logger:           m.logger,
	}
}

func (s *exerciseService) List(ctx context.Context, filter ExerciseFilter) (Page[ExerciseDetail], error) {
	var ids []int64
	if filter.FocusAreaID > 0 {
		owners, err := s.focusAreas.Store().ListOwnerIDs(ctx, filter.FocusAreaID)
		if err != nil {
			return Page[ExerciseDetail]{}, err
		}
		ids = owners.Sorted()
		if ids == nil {
			ids = []int64{}
		}
	}
	page, err := listPage(ctx, s.repo, filter.PageRequest, ids)
	if err != nil {
		return Page[ExerciseDetail]{}, err
	}
	details, err := s.withMembers(ctx, page.Items)
	if err != nil {
		return Page[ExerciseDetail]{}, err
	}
	return mapPage(page, details), nil
}

func (s *exerciseService) Get(ctx context.Context, id int64) (*ExerciseDetail, error) {
	exercise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.withMembers(ctx, []domain.Exercise{*exercise})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *exerciseService) Create(ctx context.Context, in ExerciseInput) (*ExerciseDetail, error) {
	// 1. Validate fields, required media and member ids.
	err := requireFiles(validateInput(in), map[string]*storage.Upload{
		"image_url":         in.Image,
		"male_video_path":   in.MaleVideo,
		"female_video_path": in.FemaleVideo,
	})
	var missing []string
	if in.ExecutionPoint == nil || *in.ExecutionPoint == "" {
		missing = append(missing, "execution_point")
	}
	if in.KeyTips == nil || *in.KeyTips == "" {
		missing = append(missing, "key_tips")
	}
	if err = addRequired(err, missing...); err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	// 2. Store the media, then the row.
	exercise := &domain.Exercise{
		Name:            domain.UnderscoreName(in.DisplayName),
		DisplayName:     in.DisplayName,
		PreparationText: in.PreparationText,
		ExecutionPoint:  *in.ExecutionPoint,
		KeyTips:         *in.KeyTips,
		Description:     in.Description,
	}
	keys, err := s.saveMedia(ctx, exercise, in)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, exercise); err != nil {
		s.media.discard(ctx, keys...)
		return nil, err
	}

	// 3. Attach focus areas and equipment; undo the row when either fails.
	if err := s.syncMembers(ctx, exercise.ID, in); err != nil {
		s.compensate(ctx, exercise.ID, keys)
		return nil, err
	}
	return s.Get(ctx, exercise.ID)
}

func (s *exerciseService) Update(ctx context.Context, id int64, in ExerciseInput) (*ExerciseDetail, error) {
	exercise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}

	previous := *exercise
	keys, err := s.saveMedia(ctx, exercise, in)
	if err != nil {
		return nil, err
	}
	exercise.Name = domain.UnderscoreName(in.DisplayName)
	exercise.DisplayName = in.DisplayName
	if in.PreparationText != nil {
		exercise.PreparationText = in.PreparationText
	}
	if in.ExecutionPoint != nil {
		exercise.ExecutionPoint = *in.ExecutionPoint
	}
	if in.KeyTips != nil {
		exercise.KeyTips = *in.KeyTips
	}
	if in.Description != nil {
		exercise.Description = in.Description
	}
	if err := s.update(ctx, exercise); err != nil {
		s.media.discard(ctx, keys...)
		return nil, err
	}
	s.media.discard(ctx, replaced(previous, *exercise)...)

	if err := s.syncMembers(ctx, id, in); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *exerciseService) Delete(ctx context.Context, id int64) error {
	exercise, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.media.discard(ctx, mediaKeys(*exercise)...)
	return nil
}

func (s *exerciseService) checkInput(ctx context.Context, in ExerciseInput) error {
	err := s.media.check(
		upload{in.Image, storage.MediaImage},
		upload{in.MaleVideo, storage.MediaVideo},
		upload{in.FemaleVideo, storage.MediaVideo},
	)
	if err != nil {
		return err
	}
	if err := checkMembers(ctx, s.backend, domain.EntityFocusAreas, in.FocusAreaIDs, "focus_area_ids"); err != nil {
		return err
	}
	return checkMembers(ctx, s.backend, domain.EntityEquipments, in.EquipmentIDs, "equipment_ids")
}

// saveMedia stores the uploaded files and points exercise at them. It returns
// the new keys.
func (s *exerciseService) saveMedia(ctx context.Context, exercise *domain.Exercise, in ExerciseInput) ([]string, error) {
	targets := []struct {
		up   *storage.Upload
		kind storage.MediaKind
		dst  **string
	}{
		{in.Image, storage.MediaImage, &exercise.ImageURL},
		{in.MaleVideo, storage.MediaVideo, &exercise.MaleVideoPath},
		{in.FemaleVideo, storage.MediaVideo, &exercise.FemaleVideoPath},
	}
	var keys []string
	for _, t := range targets {
		if t.up == nil {
			continue
		}
		key, err := s.media.save(ctx, folderExercises, t.up, t.kind)
		if err != nil {
			s.media.discard(ctx, keys...)
			return nil, err
		}
		keys = append(keys, key)
		*t.dst = &key
	}
	return keys, nil
}

func (s *exerciseService) syncMembers(ctx context.Context, id int64, in ExerciseInput) error {
	if err := syncIfPresent(ctx, s.focusAreas, id, in.FocusAreaIDs, "focus_area_ids"); err != nil {
		return err
	}
	return syncIfPresent(ctx, s.equipments, id, in.EquipmentIDs, "equipment_ids")
}

func (s *exerciseService) withMembers(ctx context.Context, exercises []domain.Exercise) ([]ExerciseDetail, error) {
	ids := idsOf(exercises)
	equipments, err := s.expandEquipments.Expand(ctx, ids, 0)
	if err != nil {
		return nil, err
	}
	focusAreas, err := s.expandFocusAreas.Expand(ctx, ids, 0)
	if err != nil {
		return nil, err
	}
	out := make([]ExerciseDetail, len(exercises))
	for i, e := range exercises {
		out[i] = ExerciseDetail{Exercise: e, Equipments: equipments[e.ID], FocusAreas: focusAreas[e.ID]}
	}
	return out, nil
}

// compensate removes an exercise whose member sync failed right after creation.
func (s *exerciseService) compensate(ctx context.Context, id int64, keys []string) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back exercise", "exercise_id", id, "error", err)
		return
	}
	s.media.discard(ctx, keys...)
}

func mediaKeys(e domain.Exercise) []string {
	return []string{derefString(e.ImageURL), derefString(e.MaleVideoPath), derefString(e.FemaleVideoPath)}
}

// replaced lists media keys of before that after no longer references.
func replaced(before, after domain.Exercise) []string {
	var out []string
	a := mediaKeys(after)
	for i, key := range mediaKeys(before) {
		if key != "" && key != a[i] {
			out = append(out, key)
		}
	}
	return out
}
