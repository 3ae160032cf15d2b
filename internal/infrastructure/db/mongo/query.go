package mongo

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// newID returns the string primary key used by every collection.
func newID() string {
	return uuid.NewString()
}

// contains matches s anywhere in a field, case-insensitively.
func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

// scoped adds the tenant restriction to filter.
func scoped(filter bson.M, scope domain.Scope) bson.M {
	if !scope.Unrestricted() {
		filter["traderId"] = scope.TraderID
	}
	return filter
}

// anyOf matches a term against several fields.
func anyOf(term string, fields ...string) bson.A {
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: contains(term)})
	}
	return or
}

func findOptions(p ports.Page, sort bson.D) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if p.Limit > 0 {
		opts.SetSkip(p.Skip()).SetLimit(int64(p.Limit))
	}
	return opts
}

// findPage runs filter with paging and the matching count.
func findPage[T any](ctx context.Context, col *mongo.Collection, filter bson.M, p ports.Page, sort bson.D) ([]*T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := col.Find(ctx, filter, findOptions(p, sort))
	if err != nil {
		return nil, 0, err
	}
	var rows []*T
	if err := cur.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// exists reports whether any document matches filter.
func exists(ctx context.Context, col *mongo.Collection, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
