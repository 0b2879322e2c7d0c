package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

const lockCollectionName = "relation_locks"

// Store is the MongoDB backend. Every entity and every relationship kind
// lives in its own collection named after the table.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*Store)(nil)

// NewStore wraps a connected client.
func NewStore(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, db: client.Database(dbName)}
}

func (s *Store) Categories() repository.EntityRepository[domain.Category] {
	return newEntityRepository[domain.Category](s, domain.EntityCategories)
}

func (s *Store) Equipments() repository.EntityRepository[domain.Equipment] {
	return newEntityRepository[domain.Equipment](s, domain.EntityEquipments)
}

func (s *Store) Exercises() repository.EntityRepository[domain.Exercise] {
	return newEntityRepository[domain.Exercise](s, domain.EntityExercises)
}

func (s *Store) FocusAreas() repository.EntityRepository[domain.FocusArea] {
	return newEntityRepository[domain.FocusArea](s, domain.EntityFocusAreas)
}

func (s *Store) Workouts() repository.EntityRepository[domain.Workout] {
	return newEntityRepository[domain.Workout](s, domain.EntityWorkouts)
}

func (s *Store) ExecutionPoints() repository.EntityRepository[domain.ExecutionPoint] {
	return newEntityRepository[domain.ExecutionPoint](s, domain.EntityExecutionPoints)
}

func (s *Store) MasterGoals() repository.EntityRepository[domain.MasterGoal] {
	return newEntityRepository[domain.MasterGoal](s, domain.EntityMasterGoals)
}

func (s *Store) Users() repository.EntityRepository[domain.User] {
	return newEntityRepository[domain.User](s, domain.EntityUsers)
}

func (s *Store) UserDetails() repository.EntityRepository[domain.UserDetail] {
	return newEntityRepository[domain.UserDetail](s, domain.EntityUserDetails)
}

func (s *Store) Associations(kind domain.RelationKind) relation.AssociationStore {
	return newAssociationRepository(s.db, kind)
}

// withTransaction runs fn in a majority-committed session transaction.
// The driver retries fn on transient errors such as write conflicts.
func (s *Store) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return storeErr(err)
	}
	defer session.EndSession(ctx)

	txOptions := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txOptions)
	return err
}

// WithinOwnerLock checks the owner inside the transaction and bumps a lock
// document keyed by (kind, owner). Two transactions touching the same lock
// document conflict, so the second one waits for the driver's retry and
// then sees the first one's committed pivot rows.
func (s *Store) WithinOwnerLock(ctx context.Context, kind domain.RelationKind, ownerID int64, fn relation.TxFunc) error {
	assoc := newAssociationRepository(s.db, kind)
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		err := s.db.Collection(string(kind.Owner)).FindOne(sc, bson.M{"_id": ownerID},
			options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.NotFoundError{Resource: string(kind.Owner), ID: ownerID}
			}
			return storeErr(err)
		}

		if err := touchLocks(sc, s.db, relation.LockKey(kind, ownerID)); err != nil {
			return err
		}
		return fn(sc, assoc)
	})
}

// memberGuardKey names the lock document a sync writes before linking a
// member and an entity delete writes before removing it.
func memberGuardKey(kind domain.RelationKind, memberID int64) string {
	return fmt.Sprintf("member:%s:%d", kind.Table, memberID)
}

// touchLocks upserts the lock documents in the running transaction. Two
// transactions writing the same key hit a write conflict and one of them
// is retried after the other commits.
func touchLocks(ctx context.Context, db *mongo.Database, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(keys))
	for _, key := range keys {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": key}).
			SetUpdate(bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"lockedAt": now}}).
			SetUpsert(true))
	}
	if _, err := db.Collection(lockCollectionName).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return storeErr(err)
	}
	return nil
}

// MissingIDs returns the ids with no document in the collection of t.
func (s *Store) MissingIDs(ctx context.Context, t domain.EntityType, ids relation.IDSet) ([]int64, error) {
	return missingIDs(ctx, s.db, t, ids)
}

func missingIDs(ctx context.Context, db *mongo.Database, t domain.EntityType, ids relation.IDSet) ([]int64, error) {
	if ids.Len() == 0 {
		return nil, nil
	}
	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := db.Collection(string(t)).Find(ctx, bson.M{"_id": bson.M{"$in": ids.Sorted()}}, findOptions)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var found []struct {
		ID int64 `bson:"_id"`
	}
	if err = cursor.All(ctx, &found); err != nil {
		return nil, storeErr(err)
	}
	present := relation.NewIDSet()
	for _, f := range found {
		present.Add(f.ID)
	}
	var missing []int64
	for _, id := range ids.Sorted() {
		if !present.Has(id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Store) Close(ctx context.Context) error {
	return DisconnectDB(ctx, s.client)
}
