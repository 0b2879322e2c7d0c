package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"alcyxob/fitness-content/internal/domain"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI.
// Transactions are used for relationship syncs, so the server must run as a
// replica set (a single-node set is enough).
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	// Set context with timeout for the connection attempt
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel() // Ensure cancellation happens even if connection errors out

	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, storeErr(err)
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second) // Shorter timeout for ping
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		// If ping fails, disconnect the client before returning the error
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, storeErr(err)
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// storeErr marks transport failures with domain.ErrStoreUnavailable and
// passes every other error through.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return err
}
