package service

import (
	"context"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

type CategoryInput struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"required,max=255"`
}

type CategoryService interface {
	List(ctx context.Context, req PageRequest) (Page[domain.Category], error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, in CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	catalog[domain.Category]
}

func NewCategoryService(repo repository.EntityRepository[domain.Category], changed func(ctx context.Context)) CategoryService {
	return &categoryService{catalog: newCatalog(repo, changed)}
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	category := &domain.Category{
		Name:        domain.UnderscoreName(in.DisplayName),
		DisplayName: in.DisplayName,
	}
	if err := s.create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id int64, in CategoryInput) (*domain.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	category.Name = domain.UnderscoreName(in.DisplayName)
	category.DisplayName = in.DisplayName
	if err := s.update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
