package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EstimateSequence hands out estimate numbers from an atomic counter document
// per trader and year.
type EstimateSequence struct {
	col *mongo.Collection
}

func NewEstimateSequence(db *mongo.Database) *EstimateSequence {
	return &EstimateSequence{col: db.Collection(collectionCounters)}
}

func (s *EstimateSequence) Next(ctx context.Context, traderID string, year int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": fmt.Sprintf("estimate:%s:%d", traderID, year)},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next estimate number: %w", err)
	}
	return counter.Seq, nil
}
