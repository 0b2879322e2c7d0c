package postgres

import (
	"time"

	"alcyxob/fitness-content/internal/domain"
)

// userDetailRow adds the foreign key to users so details go away with their user.
type userDetailRow struct {
	domain.UserDetail
	User domain.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (userDetailRow) TableName() string { return string(domain.EntityUserDetails) }

// Pivot tables. Each pair is unique and both foreign keys cascade on delete.

type categoryWorkout struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	CategoryID int64 `gorm:"not null;uniqueIndex:idx_category_workouts_pair"`
	WorkoutID  int64 `gorm:"not null;uniqueIndex:idx_category_workouts_pair;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Category domain.Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Workout  domain.Workout  `gorm:"foreignKey:WorkoutID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (categoryWorkout) TableName() string { return domain.CategoryWorkouts.Table }

type exerciseEquipment struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	ExerciseID  int64 `gorm:"not null;uniqueIndex:idx_exercise_equipments_pair"`
	EquipmentID int64 `gorm:"not null;uniqueIndex:idx_exercise_equipments_pair;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Exercise  domain.Exercise  `gorm:"foreignKey:ExerciseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Equipment domain.Equipment `gorm:"foreignKey:EquipmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (exerciseEquipment) TableName() string { return domain.ExerciseEquipments.Table }

type exerciseFocusArea struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	ExerciseID  int64 `gorm:"not null;uniqueIndex:idx_exercise_focus_areas_pair"`
	FocusAreaID int64 `gorm:"not null;uniqueIndex:idx_exercise_focus_areas_pair;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Exercise  domain.Exercise  `gorm:"foreignKey:ExerciseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	FocusArea domain.FocusArea `gorm:"foreignKey:FocusAreaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (exerciseFocusArea) TableName() string { return domain.ExerciseFocusAreas.Table }

type exerciseExecutionPoint struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	ExerciseID  int64 `gorm:"not null;uniqueIndex:idx_exercise_execution_points_pair"`
	ExecutionID int64 `gorm:"not null;uniqueIndex:idx_exercise_execution_points_pair;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Exercise       domain.Exercise       `gorm:"foreignKey:ExerciseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ExecutionPoint domain.ExecutionPoint `gorm:"foreignKey:ExecutionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (exerciseExecutionPoint) TableName() string { return domain.ExerciseExecutionPoints.Table }

type workoutExercise struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	WorkoutID  int64 `gorm:"not null;uniqueIndex:idx_workout_exercises_pair"`
	ExerciseID int64 `gorm:"not null;uniqueIndex:idx_workout_exercises_pair;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Workout  domain.Workout  `gorm:"foreignKey:WorkoutID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Exercise domain.Exercise `gorm:"foreignKey:ExerciseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (workoutExercise) TableName() string { return domain.WorkoutExercises.Table }

type userGoal struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_user_goals_pair"`
	GoalID    int64 `gorm:"not null;uniqueIndex:idx_user_goals_pair;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User domain.User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Goal domain.MasterGoal `gorm:"foreignKey:GoalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (userGoal) TableName() string { return domain.UserGoals.Table }

type userFocusArea struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	UserID      int64 `gorm:"not null;uniqueIndex:idx_user_focus_areas_pair"`
	FocusAreaID int64 `gorm:"not null;uniqueIndex:idx_user_focus_areas_pair;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User      domain.User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	FocusArea domain.FocusArea `gorm:"foreignKey:FocusAreaID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (userFocusArea) TableName() string { return domain.UserFocusAreas.Table }

func pivotModels() []interface{} {
	return []interface{}{
		&categoryWorkout{},
		&exerciseEquipment{},
		&exerciseFocusArea{},
		&exerciseExecutionPoint{},
		&workoutExercise{},
		&userGoal{},
		&userFocusArea{},
	}
}
