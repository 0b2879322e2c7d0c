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
)

// mongoAssociationRepository stores the pivot documents of one kind. When the
// context carries a session it runs inside that session's transaction.
type mongoAssociationRepository struct {
	kind       domain.RelationKind
	db         *mongo.Database
	collection *mongo.Collection
}

func newAssociationRepository(db *mongo.Database, kind domain.RelationKind) *mongoAssociationRepository {
	return &mongoAssociationRepository{
		kind:       kind,
		db:         db,
		collection: db.Collection(kind.Table),
	}
}

func (r *mongoAssociationRepository) Kind() domain.RelationKind { return r.kind }

type pairDoc struct {
	OwnerID  int64 `bson:"ownerId"`
	MemberID int64 `bson:"memberId"`
}

func (r *mongoAssociationRepository) ListMemberIDs(ctx context.Context, ownerID int64) (relation.IDSet, error) {
	byOwner, err := r.ListByOwners(ctx, []int64{ownerID})
	if err != nil {
		return nil, err
	}
	return byOwner[ownerID], nil
}

// InsertPairs reserves a block of ids and inserts one document per member.
// The unique (ownerId, memberId) index turns a concurrent insert into ErrDuplicatePair.
func (r *mongoAssociationRepository) InsertPairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	if memberIDs.Len() == 0 {
		return nil
	}
	first, err := reserveIDs(ctx, r.db, r.kind.Table, memberIDs.Len())
	if err != nil {
		return errors.Wrapf(err, "allocate %s ids", r.kind.Table)
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, memberIDs.Len())
	for i, memberID := range memberIDs.Sorted() {
		docs = append(docs, domain.Association{
			ID:        first + int64(i),
			OwnerID:   ownerID,
			MemberID:  memberID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(domain.ErrDuplicatePair, "%s owner %d", r.kind.Table, ownerID)
		}
		return storeErr(err)
	}
	return nil
}

func (r *mongoAssociationRepository) DeletePairs(ctx context.Context, ownerID int64, memberIDs relation.IDSet) error {
	if memberIDs.Len() == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"ownerId":  ownerID,
		"memberId": bson.M{"$in": memberIDs.Sorted()},
	})
	return storeErr(err)
}

func (r *mongoAssociationRepository) ListByOwners(ctx context.Context, ownerIDs []int64) (map[int64]relation.IDSet, error) {
	out := make(map[int64]relation.IDSet, len(ownerIDs))
	for _, id := range ownerIDs {
		out[id] = relation.IDSet{}
	}
	if len(ownerIDs) == 0 {
		return out, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"_id": 0, "ownerId": 1, "memberId": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": bson.M{"$in": ownerIDs}}, findOptions)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var pairs []pairDoc
	if err = cursor.All(ctx, &pairs); err != nil {
		return nil, storeErr(err)
	}
	for _, p := range pairs {
		out[p.OwnerID].Add(p.MemberID)
	}
	return out, nil
}

func (r *mongoAssociationRepository) ListPairs(ctx context.Context, ownerID int64) ([]domain.Association, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "memberId", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, findOptions)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	rows := make([]domain.Association, 0)
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

func (r *mongoAssociationRepository) GetPair(ctx context.Context, id int64) (*domain.Association, error) {
	var row domain.Association
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundError{Resource: r.kind.Table, ID: id}
		}
		return nil, storeErr(err)
	}
	return &row, nil
}

func (r *mongoAssociationRepository) ListOwnerIDs(ctx context.Context, memberID int64) (relation.IDSet, error) {
	findOptions := options.Find().SetProjection(bson.M{"_id": 0, "ownerId": 1, "memberId": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"memberId": memberID}, findOptions)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	var pairs []pairDoc
	if err = cursor.All(ctx, &pairs); err != nil {
		return nil, storeErr(err)
	}
	out := relation.IDSet{}
	for _, p := range pairs {
		out.Add(p.OwnerID)
	}
	return out, nil
}

func (r *mongoAssociationRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if result.DeletedCount == 0 {
		return domain.NotFoundError{Resource: r.kind.Table, ID: id}
	}
	return nil
}

// MissingMembers writes a guard document per member before reading them, so
// an entity delete racing this transaction conflicts with it.
func (r *mongoAssociationRepository) MissingMembers(ctx context.Context, memberIDs relation.IDSet) ([]int64, error) {
	keys := make([]string, 0, memberIDs.Len())
	for _, id := range memberIDs.Sorted() {
		keys = append(keys, memberGuardKey(r.kind, id))
	}
	if err := touchLocks(ctx, r.db, keys...); err != nil {
		return nil, err
	}
	return missingIDs(ctx, r.db, r.kind.Member, memberIDs)
}
