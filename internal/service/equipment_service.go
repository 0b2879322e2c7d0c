package service

import (
	"context"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/storage"
)

// ErrEquipmentExists is returned when another equipment already uses the name.
var ErrEquipmentExists = errors.Wrap(domain.ErrAlreadyExists, "Equipment with this name already exists.")

type EquipmentInput struct {
	DisplayName string          `json:"display_name" form:"display_name" validate:"required,max=255"`
	Image       *storage.Upload `json:"-" form:"-"`
}

type EquipmentService interface {
	List(ctx context.Context, req PageRequest) (Page[domain.Equipment], error)
	Get(ctx context.Context, id int64) (*domain.Equipment, error)
	Create(ctx context.Context, in EquipmentInput) (*domain.Equipment, error)
	Update(ctx context.Context, id int64, in EquipmentInput) (*domain.Equipment, error)
	Delete(ctx context.Context, id int64) error
}

type equipmentService struct {
	catalog[domain.Equipment]
	media media
}

func NewEquipmentService(repo repository.EntityRepository[domain.Equipment], m media, changed func(ctx context.Context)) EquipmentService {
	return &equipmentService{catalog: newCatalog(repo, changed), media: m}
}

func (s *equipmentService) Create(ctx context.Context, in EquipmentInput) (*domain.Equipment, error) {
	// The image is mandatory on create only.
	err := requireFiles(validateInput(in), map[string]*storage.Upload{"image_url": in.Image})
	if err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}

	name := domain.EquipmentName(in.DisplayName)
	if err := s.ensureUnique(ctx, name, 0); err != nil {
		return nil, err
	}

	key, err := s.media.save(ctx, folderEquipments, in.Image, storage.MediaImage)
	if err != nil {
		return nil, err
	}
	equipment := &domain.Equipment{Name: name, DisplayName: in.DisplayName, ImageURL: key}
	if err := s.create(ctx, equipment); err != nil {
		s.media.discard(ctx, key)
		return nil, err
	}
	return equipment, nil
}

func (s *equipmentService) Update(ctx context.Context, id int64, in EquipmentInput) (*domain.Equipment, error) {
	equipment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.media.check(upload{in.Image, storage.MediaImage}); err != nil {
		return nil, err
	}

	name := domain.EquipmentName(in.DisplayName)
	if err := s.ensureUnique(ctx, name, id); err != nil {
		return nil, err
	}

	old := ""
	if in.Image != nil {
		key, err := s.media.save(ctx, folderEquipments, in.Image, storage.MediaImage)
		if err != nil {
			return nil, err
		}
		old, equipment.ImageURL = equipment.ImageURL, key
	}
	equipment.Name = name
	equipment.DisplayName = in.DisplayName
	if err := s.update(ctx, equipment); err != nil {
		return nil, err
	}
	s.media.discard(ctx, old)
	return equipment, nil
}

func (s *equipmentService) Delete(ctx context.Context, id int64) error {
	equipment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return err
	}
	s.media.discard(ctx, equipment.ImageURL)
	return nil
}

// ensureUnique fails when another row (not self) already has name.
func (s *equipmentService) ensureUnique(ctx context.Context, name string, self int64) error {
	existing, err := s.repo.FindBy(ctx, "name", name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return ErrEquipmentExists
	}
	return nil
}
