package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/repository"
)

// DashboardCounts are the totals shown on the admin dashboard.
type DashboardCounts struct {
	TotalUsers      int64 `json:"total_users"`
	TotalExercises  int64 `json:"total_exercises"`
	TotalEquipments int64 `json:"total_equipments"`
	TotalCategories int64 `json:"total_categories"`
	TotalWorkouts   int64 `json:"total_workouts"`
	TotalFocusAreas int64 `json:"total_focus_areas"`
}

// UserStatsQuery selects the months to count. Zero values take the defaults:
// the current year, and the whole year when neither month is given.
type UserStatsQuery struct {
	Year       int `form:"year" json:"year" validate:"omitempty,min=1970,max=9999"`
	StartMonth int `form:"start_month" json:"start_month" validate:"omitempty,min=1,max=12"`
	EndMonth   int `form:"end_month" json:"end_month" validate:"omitempty,min=1,max=12"`
}

// MonthlyUsers is the number of users created in one month.
type MonthlyUsers struct {
	MonthName       string `json:"month_name"`
	UserCreateCount int64  `json:"user_create_count"`
}

type DashboardService interface {
	Counts(ctx context.Context) (*DashboardCounts, error)
	UserCreationStats(ctx context.Context, q UserStatsQuery) ([]MonthlyUsers, error)
}

type dashboardService struct {
	store repository.Store
	now   func() time.Time
}

func NewDashboardService(store repository.Store) DashboardService {
	return &dashboardService{store: store, now: time.Now}
}

func (s *dashboardService) Counts(ctx context.Context) (*DashboardCounts, error) {
	out := &DashboardCounts{}
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range []struct {
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{&out.TotalUsers, s.store.Users().Count},
		{&out.TotalExercises, s.store.Exercises().Count},
		{&out.TotalEquipments, s.store.Equipments().Count},
		{&out.TotalCategories, s.store.Categories().Count},
		{&out.TotalWorkouts, s.store.Workouts().Count},
		{&out.TotalFocusAreas, s.store.FocusAreas().Count},
	} {
		g.Go(func() error {
			n, err := c.count(ctx)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *dashboardService) UserCreationStats(ctx context.Context, q UserStatsQuery) ([]MonthlyUsers, error) {
	if err := validateInput(q); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if q.Year == 0 {
		q.Year = now.Year()
	}
	switch {
	case q.StartMonth == 0 && q.EndMonth == 0:
		q.StartMonth, q.EndMonth = 1, 12
	case q.EndMonth == 0:
		q.EndMonth = 12
	case q.StartMonth == 0:
		q.StartMonth = 1
	}
	if q.StartMonth > q.EndMonth {
		return nil, &domain.ValidationError{Field: "start_month", Message: "The start month must not be after the end month."}
	}

	users := s.store.Users()
	out := make([]MonthlyUsers, 0, q.EndMonth-q.StartMonth+1)
	for m := q.StartMonth; m <= q.EndMonth; m++ {
		from := time.Date(q.Year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		n, err := users.CountCreatedBetween(ctx, from, from.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		out = append(out, MonthlyUsers{
			MonthName:       fmt.Sprintf("%s - %d", time.Month(m), q.Year),
			UserCreateCount: n,
		})
	}
	return out, nil
}
