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

// UserRepository implements ports.UserRepository on the users collection.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = newID()
	}
	if user.Tags == nil {
		user.Tags = []string{}
	}
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone, excludeID string) (bool, error) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if len(or) == 0 {
		return false, nil
	}
	filter := bson.M{"$or": or}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	ok, err := exists(ctx, r.col, filter)
	if err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return ok, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if f.ApprovalStatus != "" {
		filter["approvalStatus"] = f.ApprovalStatus
	}
	if f.Search != "" {
		filter["$or"] = anyOf(f.Search, "name", "email", "phone")
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	if f.SortByName {
		sort = bson.D{{Key: "name", Value: 1}}
	}
	users, total, err := findPage[domain.User](ctx, r.col, filter, f.Page, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
