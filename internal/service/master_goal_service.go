package service

import (
	"context"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

type MasterGoalInput struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"required,max=255"`
	Status      *bool  `json:"status" form:"status"`
}

type MasterGoalService interface {
	List(ctx context.Context, req PageRequest) (Page[domain.MasterGoal], error)
	Get(ctx context.Context, id int64) (*domain.MasterGoal, error)
	Create(ctx context.Context, in MasterGoalInput) (*domain.MasterGoal, error)
	Update(ctx context.Context, id int64, in MasterGoalInput) (*domain.MasterGoal, error)
	Delete(ctx context.Context, id int64) error
}

type masterGoalService struct {
	catalog[domain.MasterGoal]
}

func NewMasterGoalService(repo repository.EntityRepository[domain.MasterGoal]) MasterGoalService {
	return &masterGoalService{catalog: newCatalog(repo, nil)}
}

func (s *masterGoalService) Create(ctx context.Context, in MasterGoalInput) (*domain.MasterGoal, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	goal := &domain.MasterGoal{
		Name:        domain.GoalName(in.DisplayName),
		DisplayName: in.DisplayName,
		Status:      true,
	}
	if in.Status != nil {
		goal.Status = *in.Status
	}
	if err := s.create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *masterGoalService) Update(ctx context.Context, id int64, in MasterGoalInput) (*domain.MasterGoal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	goal.Name = domain.GoalName(in.DisplayName)
	goal.DisplayName = in.DisplayName
	if in.Status != nil {
		goal.Status = *in.Status
	}
	if err := s.update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}
