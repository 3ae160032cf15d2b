package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	collectionUsers     = "users"
	collectionCustomers = "customers"
	collectionBrands    = "brands"
	collectionItems     = "items"
	collectionEstimates = "estimates"
	collectionCounters  = "counters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. The client registry
// stores decimal.Decimal values as Decimal128.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI).SetRegistry(NewRegistry())
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the indexes every repository relies on, including the
// unique constraints behind the duplicate checks.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	nonEmptyPhone := bson.M{"phone": bson.M{"$gt": ""}}
	indexes := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetPartialFilterExpression(nonEmptyPhone)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "approvalStatus", Value: 1}}},
		},
		collectionCustomers: {
			{Keys: bson.D{{Key: "traderId", Value: 1}, {Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		collectionBrands: {
			{Keys: bson.D{{Key: "traderId", Value: 1}, {Key: "nameKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collectionItems: {
			{Keys: bson.D{{Key: "traderId", Value: 1}, {Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "brand.id", Value: 1}}},
		},
		collectionEstimates: {
			{Keys: bson.D{{Key: "traderId", Value: 1}, {Key: "estimateNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "traderId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "customerRef.kind", Value: 1}, {Key: "customerRef.id", Value: 1}}},
			{Keys: bson.D{{Key: "items.item", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}
