package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterCollectionName = "counters"

type counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// reserveIDs atomically advances the named sequence by n and returns the
// first id of the reserved range.
func reserveIDs(ctx context.Context, db *mongo.Database, name string, n int) (int64, error) {
	var c counter
	err := db.Collection(counterCollectionName).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, storeErr(err)
	}
	return c.Seq - int64(n) + 1, nil
}
