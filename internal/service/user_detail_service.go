package service

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

var (
	ErrUserDetailExists   = errors.Wrap(domain.ErrAlreadyExists, "User detail already exists. You cannot add again.")
	ErrUserDetailNotFound = domain.NotFoundError{Resource: "user_details", Message: "User detail not found."}
)

// UserDetailInput carries the onboarding answers. GoalIDs and FocusAreaIDs
// are nil when the request did not carry them.
type UserDetailInput struct {
	Gender            string   `json:"gender" form:"gender" validate:"required,oneof=male female"`
	UserName          string   `json:"user_name" form:"user_name" validate:"required,max=255"`
	Age               *int     `json:"age" form:"age" validate:"required,min=0"`
	CurrentWeightType string   `json:"current_weight_type" form:"current_weight_type" validate:"required,oneof=kg lbs"`
	CurrentWeight     *float64 `json:"current_weight" form:"current_weight" validate:"required,min=0"`
	TargetWeightType  string   `json:"target_weight_type" form:"target_weight_type" validate:"required,oneof=kg lbs"`
	TargetWeight      *float64 `json:"target_weight" form:"target_weight" validate:"required,min=0"`
	HeightType        string   `json:"height_type" form:"height_type" validate:"required,oneof=cm ft"`
	Height            *float64 `json:"height" form:"height" validate:"required,min=0"`
	GoalIDs           []int64  `json:"goal_ids" form:"-" validate:"omitempty,dive,gt=0"`
	FocusAreaIDs      []int64  `json:"focus_area_ids" form:"-" validate:"omitempty,dive,gt=0"`
	// IsNotificationEnable is required when the detail is first stored.
	IsNotificationEnable *bool `json:"is_notification_enable" form:"is_notification_enable"`
}

// UserDetailResult is returned by Store and Update: the ids echo what the
// user now has selected.
type UserDetailResult struct {
	User       *domain.User       `json:"user,omitempty"`
	UserDetail *domain.UserDetail `json:"user_detail"`
	Goals      []int64            `json:"goals"`
	FocusAreas []int64            `json:"focus_areas"`
}

// Profile is the full onboarding state of a user.
type Profile struct {
	User       *domain.User        `json:"user"`
	UserDetail *domain.UserDetail  `json:"user_detail"`
	Goals      []domain.MasterGoal `json:"goals"`
	FocusAreas []domain.FocusArea  `json:"focus_areas"`
}

type UserDetailService interface {
	Store(ctx context.Context, userID int64, in UserDetailInput) (*UserDetailResult, error)
	Update(ctx context.Context, userID int64, in UserDetailInput) (*UserDetailResult, error)
	Profile(ctx context.Context, userID int64) (*Profile, error)
}

type userDetailService struct {
	users            repository.EntityRepository[domain.User]
	details          repository.EntityRepository[domain.UserDetail]
	backend          relation.Backend
	goals            *relation.SyncService
	focusAreas       *relation.SyncService
	expandGoals      *relation.Expander[domain.MasterGoal]
	expandFocusAreas *relation.Expander[domain.FocusArea]
	logger           *slog.Logger
}

func NewUserDetailService(store repository.Store, registry *relation.Registry, logger *slog.Logger) UserDetailService {
	goals := registry.For(domain.UserGoals)
	focusAreas := registry.For(domain.UserFocusAreas)
	return &userDetailService{
		users:            store.Users(),
		details:          store.UserDetails(),
		backend:          store,
		goals:            goals,
		focusAreas:       focusAreas,
		expandGoals:      relation.NewExpander(goals.Store(), repository.Loader(store.MasterGoals())),
		expandFocusAreas: relation.NewExpander(focusAreas.Store(), repository.Loader(store.FocusAreas())),
		logger:           logger,
	}
}

func (s *userDetailService) Store(ctx context.Context, userID int64, in UserDetailInput) (*UserDetailResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 1. One detail row per user
	if _, err := s.findDetail(ctx, userID); err == nil {
		return nil, ErrUserDetailExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// 2. Validate
	err = validateInput(in)
	if in.IsNotificationEnable == nil {
		err = addRequired(err, "is_notification_enable")
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, in); err != nil {
		return nil, err
	}

	// 3. Store the detail, then the selections
	detail := &domain.UserDetail{UserID: userID}
	applyDetail(detail, in)
	if err := s.details.Create(ctx, detail); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrUserDetailExists
		}
		return nil, err
	}
	if err := s.syncSelections(ctx, userID, in); err != nil {
		if derr := s.details.Delete(ctx, detail.ID); derr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back user detail", "user_id", userID, "error", derr)
		}
		return nil, err
	}

	// 4. Notification preference lives on the user
	user.IsNotificationEnable = *in.IsNotificationEnable
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return &UserDetailResult{User: user, UserDetail: detail, Goals: nonNil(in.GoalIDs), FocusAreas: nonNil(in.FocusAreaIDs)}, nil
}

func (s *userDetailService) Update(ctx context.Context, userID int64, in UserDetailInput) (*UserDetailResult, error) {
	detail, err := s.findDetail(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFoundError{Resource: "user_details", Message: "User detail not found. Please create first."}
	}
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := s.checkMembers(ctx, in); err != nil {
		return nil, err
	}

	applyDetail(detail, in)
	if err := s.details.Update(ctx, detail); err != nil {
		return nil, err
	}
	if err := s.syncSelections(ctx, userID, in); err != nil {
		return nil, err
	}
	if in.IsNotificationEnable != nil {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		user.IsNotificationEnable = *in.IsNotificationEnable
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	goals, err := s.goals.Store().ListMemberIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	focusAreas, err := s.focusAreas.Store().ListMemberIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserDetailResult{UserDetail: detail, Goals: nonNil(goals.Sorted()), FocusAreas: nonNil(focusAreas.Sorted())}, nil
}

func (s *userDetailService) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail, err := s.findDetail(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUserDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	goals, err := s.expandGoals.Expand(ctx, []int64{userID}, 0)
	if err != nil {
		return nil, err
	}
	focusAreas, err := s.expandFocusAreas.Expand(ctx, []int64{userID}, 0)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, UserDetail: detail, Goals: goals[userID], FocusAreas: focusAreas[userID]}, nil
}

func (s *userDetailService) findDetail(ctx context.Context, userID int64) (*domain.UserDetail, error) {
	return s.details.FindBy(ctx, "user_id", userID)
}

func (s *userDetailService) checkMembers(ctx context.Context, in UserDetailInput) error {
	if err := checkMembers(ctx, s.backend, domain.EntityMasterGoals, in.GoalIDs, "goal_ids"); err != nil {
		return err
	}
	return checkMembers(ctx, s.backend, domain.EntityFocusAreas, in.FocusAreaIDs, "focus_area_ids")
}

func (s *userDetailService) syncSelections(ctx context.Context, userID int64, in UserDetailInput) error {
	if err := syncIfPresent(ctx, s.goals, userID, in.GoalIDs, "goal_ids"); err != nil {
		return err
	}
	return syncIfPresent(ctx, s.focusAreas, userID, in.FocusAreaIDs, "focus_area_ids")
}

func applyDetail(d *domain.UserDetail, in UserDetailInput) {
	d.Gender = in.Gender
	d.UserName = in.UserName
	d.Age = *in.Age
	d.CurrentWeightType = in.CurrentWeightType
	d.CurrentWeight = *in.CurrentWeight
	d.TargetWeightType = in.TargetWeightType
	d.TargetWeight = *in.TargetWeight
	d.HeightType = in.HeightType
	d.Height = *in.Height
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
