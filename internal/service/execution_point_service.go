package service

import (
	"context"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

type ExecutionPointInput struct {
	Text  string `json:"text" form:"text" validate:"required"`
	Index *int   `json:"index" form:"index"`
}

type ExecutionPointService interface {
	List(ctx context.Context, req PageRequest) (Page[domain.ExecutionPoint], error)
	Get(ctx context.Context, id int64) (*domain.ExecutionPoint, error)
	Create(ctx context.Context, in ExecutionPointInput) (*domain.ExecutionPoint, error)
	Update(ctx context.Context, id int64, in ExecutionPointInput) (*domain.ExecutionPoint, error)
	Delete(ctx context.Context, id int64) error
}

type executionPointService struct {
	catalog[domain.ExecutionPoint]
}

func NewExecutionPointService(repo repository.EntityRepository[domain.ExecutionPoint]) ExecutionPointService {
	return &executionPointService{catalog: newCatalog(repo, nil)}
}

func (s *executionPointService) Create(ctx context.Context, in ExecutionPointInput) (*domain.ExecutionPoint, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	point := &domain.ExecutionPoint{Text: in.Text, Index: in.Index}
	if err := s.create(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}

func (s *executionPointService) Update(ctx context.Context, id int64, in ExecutionPointInput) (*domain.ExecutionPoint, error) {
	point, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	point.Text = in.Text
	if in.Index != nil {
		point.Index = in.Index
	}
	if err := s.update(ctx, point); err != nil {
		return nil, err
	}
	return point, nil
}
