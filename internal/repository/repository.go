package repository

import (
	"context" // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"

	"alcyxob/fitness-content/internal/domain" // Import our defined domain models
	"alcyxob/fitness-content/internal/relation"
)

// Error constants for repository layer. Missing rows are reported with
// domain.NotFoundError so callers can use errors.Is(err, domain.ErrNotFound).
var (
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrUnknownField = RepositoryError("unknown lookup field")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ListQuery narrows and pages a List call.
type ListQuery struct {
	// Page is 1-based. Zero returns every matching row.
	Page  int
	Limit int
	// IDs restricts the result to these ids when non-nil. An empty non-nil
	// slice matches nothing.
	IDs []int64
	// Desc orders by descending id; ascending otherwise.
	Desc bool
}

// Paged reports whether the query asks for a single page.
func (q ListQuery) Paged() bool { return q.Page > 0 }

// Offset is the number of rows skipped for the requested page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// EntityRepository is the storage contract shared by every entity type.
// Lookup fields use the JSON names of the entity (email, phone, name, user_id).
type EntityRepository[T any] interface {
	// Create assigns a new id and both timestamps, then stores the row.
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	// GetByIDs loads many rows in one query; absent ids are skipped.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]T, error)
	FindBy(ctx context.Context, field string, value any) (*T, error)
	// List returns the matching rows and the total count before paging.
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	Update(ctx context.Context, entity *T) error
	// Delete removes the row together with every association that references it.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// Store is implemented by each storage backend (mongo, postgres, memory).
type Store interface {
	relation.Backend

	Categories() EntityRepository[domain.Category]
	Equipments() EntityRepository[domain.Equipment]
	Exercises() EntityRepository[domain.Exercise]
	FocusAreas() EntityRepository[domain.FocusArea]
	Workouts() EntityRepository[domain.Workout]
	ExecutionPoints() EntityRepository[domain.ExecutionPoint]
	MasterGoals() EntityRepository[domain.MasterGoal]
	Users() EntityRepository[domain.User]
	UserDetails() EntityRepository[domain.UserDetail]

	Close(ctx context.Context) error
}

// Loader adapts an entity repository to a relation.MemberLoader.
func Loader[T any](repo EntityRepository[T]) relation.MemberLoader[T] {
	return func(ctx context.Context, ids []int64) (map[int64]T, error) {
		return repo.GetByIDs(ctx, ids)
	}
}
