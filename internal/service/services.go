package service

import (
	"log/slog"
	"time"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/storage"
)

// Deps are the collaborators every service is built from.
type Deps struct {
	Store         repository.Store
	Registry      *relation.Registry
	Files         storage.FileStorage
	JWTSecret     string
	JWTExpiration time.Duration
	HomeTTL       time.Duration
	Logger        *slog.Logger
}

// Services bundles the application services used by the HTTP layer.
type Services struct {
	Auth            AuthService
	UserDetails     UserDetailService
	Home            HomeService
	Dashboard       DashboardService
	Categories      CategoryService
	Equipments      EquipmentService
	Exercises       ExerciseService
	FocusAreas      FocusAreaService
	Workouts        WorkoutService
	ExecutionPoints ExecutionPointService
	MasterGoals     MasterGoalService
	// Pivots are keyed by the URL segment they are served under.
	Pivots map[string]PivotService
}

// New builds every service. Entity writes that change what the home feed
// shows drop its cache.
func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = relation.NewRegistry(d.Store, nil, relation.WithLogger(d.Logger))
	}
	m := media{files: d.Files, logger: d.Logger}
	home := NewHomeService(d.Store, d.Registry, d.HomeTTL, d.Logger)
	changed := home.Invalidate

	st, reg := d.Store, d.Registry
	return &Services{
		Auth:            NewAuthService(st.Users(), d.JWTSecret, d.JWTExpiration),
		UserDetails:     NewUserDetailService(st, reg, d.Logger),
		Home:            home,
		Dashboard:       NewDashboardService(st),
		Categories:      NewCategoryService(st.Categories(), changed),
		Equipments:      NewEquipmentService(st.Equipments(), m, nil),
		Exercises:       NewExerciseService(st, reg, m, changed),
		FocusAreas:      NewFocusAreaService(st.FocusAreas(), m, changed),
		Workouts:        NewWorkoutService(st, reg, m, changed),
		ExecutionPoints: NewExecutionPointService(st.ExecutionPoints()),
		MasterGoals:     NewMasterGoalService(st.MasterGoals()),
		Pivots: map[string]PivotService{
			"category-workouts":         NewPivotService(reg.For(domain.CategoryWorkouts), st.Categories(), st.Workouts(), true),
			"exercise-equipments":       NewPivotService(reg.For(domain.ExerciseEquipments), st.Exercises(), st.Equipments(), false),
			"exercise-focus-areas":      NewPivotService(reg.For(domain.ExerciseFocusAreas), st.Exercises(), st.FocusAreas(), false),
			"exercise-execution-points": NewPivotService(reg.For(domain.ExerciseExecutionPoints), st.Exercises(), st.ExecutionPoints(), false),
			"workout-exercises":         NewPivotService(reg.For(domain.WorkoutExercises), st.Workouts(), st.Exercises(), false),
		},
	}
}
