package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

// Store is the PostgreSQL backend built on gorm.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Categories() repository.EntityRepository[domain.Category] {
	return newEntityRepository[domain.Category](s.db, domain.EntityCategories)
}

func (s *Store) Equipments() repository.EntityRepository[domain.Equipment] {
	return newEntityRepository[domain.Equipment](s.db, domain.EntityEquipments)
}

func (s *Store) Exercises() repository.EntityRepository[domain.Exercise] {
	return newEntityRepository[domain.Exercise](s.db, domain.EntityExercises)
}

func (s *Store) FocusAreas() repository.EntityRepository[domain.FocusArea] {
	return newEntityRepository[domain.FocusArea](s.db, domain.EntityFocusAreas)
}

func (s *Store) Workouts() repository.EntityRepository[domain.Workout] {
	return newEntityRepository[domain.Workout](s.db, domain.EntityWorkouts)
}

func (s *Store) ExecutionPoints() repository.EntityRepository[domain.ExecutionPoint] {
	return newEntityRepository[domain.ExecutionPoint](s.db, domain.EntityExecutionPoints)
}

func (s *Store) MasterGoals() repository.EntityRepository[domain.MasterGoal] {
	return newEntityRepository[domain.MasterGoal](s.db, domain.EntityMasterGoals)
}

func (s *Store) Users() repository.EntityRepository[domain.User] {
	return newEntityRepository[domain.User](s.db, domain.EntityUsers)
}

func (s *Store) UserDetails() repository.EntityRepository[domain.UserDetail] {
	return newEntityRepository[domain.UserDetail](s.db, domain.EntityUserDetails)
}

func (s *Store) Associations(kind domain.RelationKind) relation.AssociationStore {
	return &associationRepository{kind: kind, db: s.db}
}

// WithinOwnerLock takes a row lock on the owner (SELECT ... FOR UPDATE) and
// hands fn a store bound to the transaction. A concurrent sync of the same
// owner blocks on the row lock until this transaction ends.
func (s *Store) WithinOwnerLock(ctx context.Context, kind domain.RelationKind, ownerID int64, fn relation.TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		err := tx.Table(string(kind.Owner)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ownerID).
			Pluck("id", &ids).Error
		if err != nil {
			return storeErr(err)
		}
		if len(ids) == 0 {
			return domain.NotFoundError{Resource: string(kind.Owner), ID: ownerID}
		}
		return fn(ctx, &associationRepository{kind: kind, db: tx})
	})
}

func (s *Store) MissingIDs(ctx context.Context, t domain.EntityType, ids relation.IDSet) ([]int64, error) {
	return missingIDs(s.db.WithContext(ctx), t, ids)
}

// missingIDs lists the ids with no row in table t using db, which may carry
// locking clauses or a transaction.
func missingIDs(db *gorm.DB, t domain.EntityType, ids relation.IDSet) ([]int64, error) {
	if ids.Len() == 0 {
		return nil, nil
	}
	var found []int64
	if err := db.Table(string(t)).Where("id IN ?", ids.Sorted()).Pluck("id", &found).Error; err != nil {
		return nil, storeErr(err)
	}
	present := relation.NewIDSet(found...)
	var missing []int64
	for _, id := range ids.Sorted() {
		if !present.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
