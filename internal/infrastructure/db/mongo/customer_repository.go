package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// CustomerRepository implements ports.CustomerRepository. The unique
// (traderId, phone) index backs the per-trader phone check.
type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{col: db.Collection(collectionCustomers)}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = newID()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Customer
	if err := r.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CustomerRepository) FindByPhone(ctx context.Context, scope domain.Scope, phone string) (*domain.Customer, error) {
	return r.findOne(ctx, scoped(bson.M{"phone": phone}, scope))
}

func (r *CustomerRepository) PhoneTaken(ctx context.Context, traderID, phone, excludeID string) (bool, error) {
	filter := bson.M{"traderId": traderID, "phone": phone}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return exists(ctx, r.col, filter)
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, f ports.CustomerFilter) ([]*domain.Customer, int64, error) {
	filter := scoped(bson.M{}, f.Scope)
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if f.Search != "" {
		filter["$or"] = anyOf(f.Search, "name", "phone", "email")
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	if f.SortByName {
		sort = bson.D{{Key: "name", Value: 1}}
	}
	rows, total, err := findPage[domain.Customer](ctx, r.col, filter, f.Page, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return rows, total, nil
}
