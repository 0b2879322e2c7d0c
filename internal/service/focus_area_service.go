package service

import (
	"context"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/storage"
)

type FocusAreaInput struct {
	DisplayName string          `json:"display_name" form:"display_name" validate:"required,max=255"`
	Image       *storage.Upload `json:"-" form:"-"`
}

type FocusAreaService interface {
	List(ctx context.Context, req PageRequest) (Page[domain.FocusArea], error)
	Get(ctx context.Context, id int64) (*domain.FocusArea, error)
	Create(ctx context.Context, in FocusAreaInput) (*domain.FocusArea, error)
	Update(ctx context.Context, id int64, in FocusAreaInput) (*domain.FocusArea, error)
	Delete(ctx context.Context, id int64) error
}

type focusAreaService struct {
	catalog[domain.FocusArea]
	media media
}

func NewFocusAreaService(repo repository.EntityRepository[domain.FocusArea], m media, changed func(ctx context.Context)) FocusAreaService {
	return &focusAreaService{catalog: newCatalog(repo, changed), media: m}
}

func (s *focusAreaService) Create(ctx context.Context, in FocusAreaInput) (*domain.FocusArea, error) {
	if err := requireFiles(validateInput(in), map[string]*storage.Upload{"image_url": in.Image}); err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}
	key, err := s.media.save(ctx, folderFocusAreas, in.Image, storage.MediaImage)
	if err != nil {
		return nil, err
	}
	area := &domain.FocusArea{Name: domain.Slug(in.DisplayName), DisplayName: in.DisplayName, ImageURL: &key}
	if err := s.create(ctx, area); err != nil {
		s.media.discard(ctx, key)
		return nil, err
	}
	return area, nil
}

func (s *focusAreaService) Update(ctx context.Context, id int64, in FocusAreaInput) (*domain.FocusArea, error) {
	area, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}

	old := ""
	if in.Image != nil {
		key, err := s.media.save(ctx, folderFocusAreas, in.Image, storage.MediaImage)
		if err != nil {
			return nil, err
		}
		old = derefString(area.ImageURL)
		area.ImageURL = &key
	}
	area.Name = domain.Slug(in.DisplayName)
	area.DisplayName = in.DisplayName
	if err := s.update(ctx, area); err != nil {
		return nil, err
	}
	s.media.discard(ctx, old)
	return area, nil
}

func (s *focusAreaService) Delete(ctx context.Context, id int64) error {
	area, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.media.discard(ctx, derefString(area.ImageURL))
	return nil
}
