package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alcyxob/fitness-content/internal/domain"
)

// EnsureIndexes creates the unique and lookup indexes of every collection.
// Call this once during application startup. It also creates the counter
// and lock collections, which cannot be created inside a transaction.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, kind := range domain.AllRelationKinds() {
		if err := EnsureAssociationIndexes(ctx, s.db.Collection(kind.Table)); err != nil {
			return errors.Wrapf(err, "indexes for %s", kind.Table)
		}
	}

	unique := map[domain.EntityType][]string{
		domain.EntityUsers:       {"email", "phone"},
		domain.EntityEquipments:  {"name"},
		domain.EntityUserDetails: {"userId"},
	}
	for table, keys := range unique {
		indexes := make([]mongo.IndexModel, 0, len(keys))
		for _, key := range keys {
			indexes = append(indexes, mongo.IndexModel{
				Keys:    bson.D{{Key: key, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
		}
		if _, err := s.db.Collection(string(table)).Indexes().CreateMany(ctx, indexes); err != nil {
			return errors.Wrapf(storeErr(err), "indexes for %s", table)
		}
	}

	if _, err := s.db.Collection(string(domain.EntityUsers)).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	}); err != nil {
		return errors.Wrap(storeErr(err), "users createdAt index")
	}

	for _, name := range []string{counterCollectionName, lockCollectionName} {
		err := s.db.CreateCollection(ctx, name)
		var cmdErr mongo.CommandError
		if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
			return errors.Wrapf(storeErr(err), "create %s", name)
		}
	}
	return nil
}

// EnsureAssociationIndexes creates the unique pair index and the reverse
// lookup index of a pivot collection.
func EnsureAssociationIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "memberId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("owner_member_unique"),
		},
		{
			Keys: bson.D{{Key: "memberId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return storeErr(err)
}
