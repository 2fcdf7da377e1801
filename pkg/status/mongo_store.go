package status

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Config holds the MongoDB status store configuration.
type Config struct {
	ConnectionURL  string        `env:"STATUS_MONGODB_URL" envDefault:"mongodb://localhost:27017"` // ConnectionURL is the URL of the database.
	Database       string        `env:"STATUS_MONGODB_DATABASE" envDefault:"notifier"`             // Database holding the status collection.
	Collection     string        `env:"STATUS_MONGODB_COLLECTION" envDefault:"notifications"`      // Collection holding one record per (id, timestamp).
	ConnectTimeout time.Duration `env:"STATUS_MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`           // ConnectTimeout bounds the initial connection attempt.
	RetryAttempts  int           `env:"STATUS_MONGODB_RETRY_ATTEMPTS" envDefault:"3"`              // RetryAttempts is the number of connection attempts at startup.
	RetryInterval  time.Duration `env:"STATUS_MONGODB_RETRY_INTERVAL" envDefault:"5s"`             // RetryInterval is the wait between connection attempts.
}

// MongoStore persists status records in a MongoDB collection, one document
// per (id, timestamp) pair. It is the document-store analog of the original
// key-value table: updates are conditionless $set upserts.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store bound to the
// configured collection. Connection attempts are retried to tolerate
// transient startup ordering between the service and the database.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	var lastErr error
	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				coll := client.Database(cfg.Database).Collection(cfg.Collection)
				return &MongoStore{coll: coll}, nil
			}
		}
		lastErr = err

		time.Sleep(cfg.RetryInterval)
	}
	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// NewMongoStoreWithCollection wraps an existing collection. Useful for tests
// and callers that manage the client themselves.
func NewMongoStoreWithCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// Update implements Store. The write is an upsert on the compound
// (id, timestamp) filter; absent keys are created and every write refreshes
// updatedAt. No conditions are applied, so the last writer wins.
func (s *MongoStore) Update(ctx context.Context, key Key, upd Update) error {
	set := bson.M{
		"status":    upd.Status,
		"updatedAt": time.Now().UTC(),
	}
	if upd.MessageID != nil {
		set["messageId"] = *upd.MessageID
	}
	if upd.ErrorMessage != nil {
		set["errorMessage"] = *upd.ErrorMessage
	}

	filter := bson.M{"id": key.ID, "timestamp": key.Timestamp}

	if _, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set},
		options.UpdateOne().SetUpsert(true)); err != nil {
		return errors.Join(ErrUpdateFailed, err)
	}
	return nil
}
