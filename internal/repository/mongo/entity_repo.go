package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
)

// lookupFields maps the JSON names accepted by FindBy to document keys.
var lookupFields = map[string]string{
	"email":   "email",
	"phone":   "phone",
	"name":    "name",
	"user_id": "userId",
}

type entityPtr[T any] interface {
	*T
	domain.Entity
}

// mongoEntityRepository implements repository.EntityRepository for one collection.
type mongoEntityRepository[T any, PT entityPtr[T]] struct {
	store      *Store
	table      domain.EntityType
	collection *mongo.Collection
}

func newEntityRepository[T any, PT entityPtr[T]](s *Store, table domain.EntityType) *mongoEntityRepository[T, PT] {
	return &mongoEntityRepository[T, PT]{
		store:      s,
		table:      table,
		collection: s.db.Collection(string(table)),
	}
}

func (r *mongoEntityRepository[T, PT]) notFound(id int64) error {
	return domain.NotFoundError{Resource: string(r.table), ID: id}
}

// Create allocates the next id from the counters collection and inserts the document.
func (r *mongoEntityRepository[T, PT]) Create(ctx context.Context, entity *T) error {
	id, err := reserveIDs(ctx, r.store.db, string(r.table), 1)
	if err != nil {
		return errors.Wrapf(err, "allocate %s id", r.table)
	}
	p := PT(entity)
	p.SetID(id)
	p.Touch(time.Now().UTC())

	if _, err := r.collection.InsertOne(ctx, entity); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(domain.ErrAlreadyExists, string(r.table))
		}
		return storeErr(err)
	}
	return nil
}

// GetByID retrieves a document by its ID.
func (r *mongoEntityRepository[T, PT]) GetByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.notFound(id)
		}
		return nil, storeErr(err)
	}
	return &entity, nil
}

func (r *mongoEntityRepository[T, PT]) GetByIDs(ctx context.Context, ids []int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var rows []T
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, storeErr(err)
	}
	for i := range rows {
		out[PT(&rows[i]).GetID()] = rows[i]
	}
	return out, nil
}

// FindBy loads the first document whose field equals value.
func (r *mongoEntityRepository[T, PT]) FindBy(ctx context.Context, field string, value any) (*T, error) {
	key, ok := lookupFields[field]
	if !ok {
		return nil, repository.ErrUnknownField
	}
	var entity T
	err := r.collection.FindOne(ctx, bson.M{key: value}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundError{Resource: string(r.table)}
		}
		return nil, storeErr(err)
	}
	return &entity, nil
}

func (r *mongoEntityRepository[T, PT]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	filter := bson.M{}
	if q.IDs != nil {
		filter["_id"] = bson.M{"$in": q.IDs}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storeErr(err)
	}

	order := 1
	if q.Desc {
		order = -1
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: order}})
	if q.Paged() {
		findOptions.SetSkip(int64(q.Offset())).SetLimit(int64(q.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer cursor.Close(ctx)

	rows := make([]T, 0)
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, 0, storeErr(err)
	}
	return rows, total, nil
}

// Update replaces the stored document, keeping its creation time.
func (r *mongoEntityRepository[T, PT]) Update(ctx context.Context, entity *T) error {
	p := PT(entity)
	if p.GetCreatedAt().IsZero() {
		existing, err := r.GetByID(ctx, p.GetID())
		if err != nil {
			return err
		}
		p.Touch(PT(existing).GetCreatedAt())
	}
	p.Touch(time.Now().UTC())

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.GetID()}, entity)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(domain.ErrAlreadyExists, string(r.table))
		}
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		return r.notFound(p.GetID())
	}
	return nil
}

// Delete removes the document and every pivot row that references it in one transaction.
func (r *mongoEntityRepository[T, PT]) Delete(ctx context.Context, id int64) error {
	asOwner, asMember := domain.KindsReferencing(r.table)
	return r.store.withTransaction(ctx, func(sc mongo.SessionContext) error {
		result, err := r.collection.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return storeErr(err)
		}
		if result.DeletedCount == 0 {
			return r.notFound(id)
		}
		var guards []string
		for _, kind := range asOwner {
			if _, err := r.store.db.Collection(kind.Table).DeleteMany(sc, bson.M{"ownerId": id}); err != nil {
				return storeErr(err)
			}
			guards = append(guards, relation.LockKey(kind, id))
		}
		for _, kind := range asMember {
			if _, err := r.store.db.Collection(kind.Table).DeleteMany(sc, bson.M{"memberId": id}); err != nil {
				return storeErr(err)
			}
			guards = append(guards, memberGuardKey(kind, id))
		}
		// Conflicts with any sync linking this row that has not committed yet.
		return touchLocks(sc, r.store.db, guards...)
	})
}

func (r *mongoEntityRepository[T, PT]) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	return n, storeErr(err)
}

func (r *mongoEntityRepository[T, PT]) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
	return n, storeErr(err)
}
