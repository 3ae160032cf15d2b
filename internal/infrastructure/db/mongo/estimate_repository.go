package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// EstimateRepository implements ports.EstimateRepository. Estimate numbers
// are unique per trader through the (traderId, estimateNumber) index.
type EstimateRepository struct {
	col *mongo.Collection
}

func NewEstimateRepository(db *mongo.Database) *EstimateRepository {
	return &EstimateRepository{col: db.Collection(collectionEstimates)}
}

func (r *EstimateRepository) Create(ctx context.Context, e *domain.Estimate) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if e.ID == "" {
		e.ID = newID()
	}
	if e.SentVia == nil {
		e.SentVia = []domain.SendChannel{}
	}
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEstimateNum
		}
		return fmt.Errorf("insert estimate: %w", err)
	}
	return nil
}

func (r *EstimateRepository) FindByID(ctx context.Context, id string) (*domain.Estimate, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.Estimate
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEstimateNotFound
		}
		return nil, fmt.Errorf("find estimate: %w", err)
	}
	return &e, nil
}

// Update replaces the estimate only while it still carries the status the
// caller read, so a stale copy cannot undo a concurrent transition.
func (r *EstimateRepository) Update(ctx context.Context, e *domain.Estimate, expected domain.EstimateStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.ID, "status": expected}, e)
	if err != nil {
		return fmt.Errorf("update estimate: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": e.ID})
	if err != nil {
		return fmt.Errorf("update estimate: %w", err)
	}
	if n == 0 {
		return domain.ErrEstimateNotFound
	}
	return domain.ErrEstimateConflict
}

func (r *EstimateRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete estimate: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEstimateNotFound
	}
	return nil
}

func (r *EstimateRepository) List(ctx context.Context, f ports.EstimateFilter) ([]*domain.Estimate, int64, error) {
	rows, total, err := findPage[domain.Estimate](ctx, r.col, estimateFilter(f), f.Page, bson.D{{Key: "createdAt", Value: -1}})
	if err != nil {
		return nil, 0, fmt.Errorf("list estimates: %w", err)
	}
	return rows, total, nil
}

// MarkViewed only matches estimates still in the sent state, so concurrent
// viewers record a single transition.
func (r *EstimateRepository) MarkViewed(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.EstimateSent},
		bson.M{"$set": bson.M{"status": domain.EstimateViewed, "viewedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, fmt.Errorf("mark estimate viewed: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func estimateFilter(f ports.EstimateFilter) bson.M {
	filter := scoped(bson.M{}, f.Scope)
	if len(f.Parties) > 0 {
		or := make(bson.A, 0, len(f.Parties))
		for _, p := range f.Parties {
			or = append(or, bson.M{"customerRef.kind": p.Kind, "customerRef.id": p.ID})
		}
		filter["$or"] = or
	}
	if f.ItemID != "" {
		filter["items.item"] = f.ItemID
	}
	if f.Search != "" {
		filter["estimateNumber"] = contains(f.Search)
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	created := bson.M{}
	if !f.DateFrom.IsZero() {
		created["$gte"] = f.DateFrom
	}
	if !f.DateTo.IsZero() {
		created["$lte"] = f.DateTo
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	return filter
}
