package domain

import "time"

// EntityType names the table/collection an entity lives in.
type EntityType string

const (
	EntityCategories      EntityType = "categories"
	EntityEquipments      EntityType = "equipments"
	EntityExercises       EntityType = "exercises"
	EntityFocusAreas      EntityType = "focus_areas"
	EntityWorkouts        EntityType = "workouts"
	EntityExecutionPoints EntityType = "execution_points"
	EntityMasterGoals     EntityType = "master_goals"
	EntityUsers           EntityType = "users"
	EntityUserDetails     EntityType = "user_details"
)

// RelationKind describes one many-to-many relationship: which entity plays the
// owner, which plays the member, and the pivot table holding the pairs.
type RelationKind struct {
	Table        string     // pivot table / collection name
	Owner        EntityType // owner entity table
	Member       EntityType // member entity table
	OwnerColumn  string     // e.g. "category_id"
	MemberColumn string     // e.g. "workout_id"
}

// String returns the pivot table name, which is unique per kind.
func (k RelationKind) String() string { return k.Table }

// The concrete relationship kinds served by the API.
var (
	CategoryWorkouts = RelationKind{
		Table: "category_workouts", Owner: EntityCategories, Member: EntityWorkouts,
		OwnerColumn: "category_id", MemberColumn: "workout_id",
	}
	ExerciseEquipments = RelationKind{
		Table: "exercise_equipments", Owner: EntityExercises, Member: EntityEquipments,
		OwnerColumn: "exercise_id", MemberColumn: "equipment_id",
	}
	ExerciseFocusAreas = RelationKind{
		Table: "exercise_focus_areas", Owner: EntityExercises, Member: EntityFocusAreas,
		OwnerColumn: "exercise_id", MemberColumn: "focus_area_id",
	}
	ExerciseExecutionPoints = RelationKind{
		Table: "exercise_execution_points", Owner: EntityExercises, Member: EntityExecutionPoints,
		OwnerColumn: "exercise_id", MemberColumn: "execution_id",
	}
	WorkoutExercises = RelationKind{
		Table: "workout_exercises", Owner: EntityWorkouts, Member: EntityExercises,
		OwnerColumn: "workout_id", MemberColumn: "exercise_id",
	}
	UserGoals = RelationKind{
		Table: "user_goals", Owner: EntityUsers, Member: EntityMasterGoals,
		OwnerColumn: "user_id", MemberColumn: "goal_id",
	}
	UserFocusAreas = RelationKind{
		Table: "user_focus_areas", Owner: EntityUsers, Member: EntityFocusAreas,
		OwnerColumn: "user_id", MemberColumn: "focus_area_id",
	}
)

// AllRelationKinds lists every kind; storage backends use it to build indexes
// and to cascade entity deletion.
func AllRelationKinds() []RelationKind {
	return []RelationKind{
		CategoryWorkouts,
		ExerciseEquipments,
		ExerciseFocusAreas,
		ExerciseExecutionPoints,
		WorkoutExercises,
		UserGoals,
		UserFocusAreas,
	}
}

// KindsReferencing returns the kinds in which the entity type plays owner or member.
func KindsReferencing(t EntityType) (asOwner, asMember []RelationKind) {
	for _, k := range AllRelationKinds() {
		if k.Owner == t {
			asOwner = append(asOwner, k)
		}
		if k.Member == t {
			asMember = append(asMember, k)
		}
	}
	return asOwner, asMember
}

// Association is one pivot row of a relationship kind. The (OwnerID, MemberID)
// pair is the true key; ID only exists for targeted deletion.
type Association struct {
	ID        int64     `bson:"_id" json:"id"`
	OwnerID   int64     `bson:"ownerId" json:"owner_id"`
	MemberID  int64     `bson:"memberId" json:"member_id"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}
