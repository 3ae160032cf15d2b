package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// DashboardRepository runs the dashboard aggregations directly against the
// collections.
type DashboardRepository struct {
	users     *mongo.Collection
	customers *mongo.Collection
	brands    *mongo.Collection
	items     *mongo.Collection
	estimates *mongo.Collection
}

func NewDashboardRepository(db *mongo.Database) *DashboardRepository {
	return &DashboardRepository{
		users:     db.Collection(collectionUsers),
		customers: db.Collection(collectionCustomers),
		brands:    db.Collection(collectionBrands),
		items:     db.Collection(collectionItems),
		estimates: db.Collection(collectionEstimates),
	}
}

func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func countIf(cond any) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
}

// EstimateCounts tallies a scope in one pass. Pending means sent or viewed
// without having been converted.
func (r *DashboardRepository) EstimateCounts(ctx context.Context, scope domain.Scope, monthStart time.Time) (ports.EstimateCounts, error) {
	thisMonth := bson.M{"$gte": bson.A{"$createdAt", monthStart}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scoped(bson.M{}, scope)}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total":          bson.M{"$sum": 1},
			"thisMonth":      countIf(thisMonth),
			"converted":      countIf("$isConverted"),
			"pending":        countIf(bson.M{"$in": bson.A{"$status", bson.A{domain.EstimateSent, domain.EstimateViewed}}}),
			"thisMonthValue": bson.M{"$sum": bson.M{"$cond": bson.A{thisMonth, "$total", 0}}},
		}}},
	}

	type row struct {
		Total          int64           `bson:"total"`
		ThisMonth      int64           `bson:"thisMonth"`
		Converted      int64           `bson:"converted"`
		Pending        int64           `bson:"pending"`
		ThisMonthValue decimal.Decimal `bson:"thisMonthValue"`
	}
	rows, err := aggregate[row](ctx, r.estimates, pipeline)
	if err != nil {
		return ports.EstimateCounts{}, fmt.Errorf("count estimates: %w", err)
	}
	if len(rows) == 0 {
		return ports.EstimateCounts{ThisMonthValue: decimal.Zero}, nil
	}
	c := rows[0]
	return ports.EstimateCounts{
		Total:          c.Total,
		ThisMonth:      c.ThisMonth,
		Converted:      c.Converted,
		Pending:        c.Pending,
		ThisMonthValue: c.ThisMonthValue,
	}, nil
}

func (r *DashboardRepository) count(ctx context.Context, col *mongo.Collection, scope domain.Scope) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := col.CountDocuments(ctx, scoped(bson.M{}, scope))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", col.Name(), err)
	}
	return n, nil
}

func (r *DashboardRepository) CountCustomers(ctx context.Context, scope domain.Scope) (int64, error) {
	return r.count(ctx, r.customers, scope)
}

func (r *DashboardRepository) CountItems(ctx context.Context, scope domain.Scope) (int64, error) {
	return r.count(ctx, r.items, scope)
}

func (r *DashboardRepository) CountBrands(ctx context.Context, scope domain.Scope) (int64, error) {
	return r.count(ctx, r.brands, scope)
}

func (r *DashboardRepository) RecentEstimates(ctx context.Context, scope domain.Scope, limit int) ([]*domain.Estimate, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.estimates.Find(ctx, scoped(bson.M{}, scope), opts)
	if err != nil {
		return nil, fmt.Errorf("recent estimates: %w", err)
	}
	var out []*domain.Estimate
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode recent estimates: %w", err)
	}
	return out, nil
}

// TopCustomers groups by bill-to reference and reports the party snapshot of
// the newest estimate in each group.
func (r *DashboardRepository) TopCustomers(ctx context.Context, scope domain.Scope, limit int) ([]ports.CustomerRollup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scoped(bson.M{}, scope)}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"kind": "$customerRef.kind", "id": "$customerRef.id"},
			"party":          bson.M{"$first": "$customer"},
			"estimateCount":  bson.M{"$sum": 1},
			"totalValue":     bson.M{"$sum": "$total"},
			"convertedCount": countIf("$isConverted"),
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "estimateCount", Value: -1}, {Key: "totalValue", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	type row struct {
		ID             domain.PartyRef      `bson:"_id"`
		Party          *domain.PartySummary `bson:"party"`
		EstimateCount  int64                `bson:"estimateCount"`
		TotalValue     decimal.Decimal      `bson:"totalValue"`
		ConvertedCount int64                `bson:"convertedCount"`
	}
	rows, err := aggregate[row](ctx, r.estimates, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}

	out := make([]ports.CustomerRollup, 0, len(rows))
	for _, rw := range rows {
		party := domain.PartySummary{Kind: rw.ID.Kind, ID: rw.ID.ID}
		if rw.Party != nil {
			party = *rw.Party
		}
		out = append(out, ports.CustomerRollup{
			Party:          party,
			EstimateCount:  rw.EstimateCount,
			TotalValue:     rw.TotalValue,
			ConvertedCount: rw.ConvertedCount,
		})
	}
	return out, nil
}

func (r *DashboardRepository) MonthlyStats(ctx context.Context, scope domain.Scope, since time.Time) ([]ports.MonthRollup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scoped(bson.M{"createdAt": bson.M{"$gte": since}}, scope)}},
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"year": bson.M{"$year": "$createdAt"}, "month": bson.M{"$month": "$createdAt"}},
			"count":          bson.M{"$sum": 1},
			"totalValue":     bson.M{"$sum": "$total"},
			"convertedCount": countIf("$isConverted"),
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	}

	type row struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Count          int64           `bson:"count"`
		TotalValue     decimal.Decimal `bson:"totalValue"`
		ConvertedCount int64           `bson:"convertedCount"`
	}
	rows, err := aggregate[row](ctx, r.estimates, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}

	out := make([]ports.MonthRollup, 0, len(rows))
	for _, rw := range rows {
		out = append(out, ports.MonthRollup{
			Year:           rw.ID.Year,
			Month:          rw.ID.Month,
			Count:          rw.Count,
			TotalValue:     rw.TotalValue,
			ConvertedCount: rw.ConvertedCount,
		})
	}
	return out, nil
}

func (r *DashboardRepository) UsersByRole(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}
	type row struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	rows, err := aggregate[row](ctx, r.users, pipeline)
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	out := map[string]int64{domain.RoleAdmin: 0, domain.RoleTrader: 0, domain.RoleCustomer: 0}
	for _, rw := range rows {
		out[rw.Role] = rw.Count
	}
	return out, nil
}

// TopTraders ranks active traders by estimate count.
func (r *DashboardRepository) TopTraders(ctx context.Context, limit int) ([]ports.TraderRollup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           "$traderId",
			"estimateCount": bson.M{"$sum": 1},
			"totalValue":    bson.M{"$sum": "$total"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collectionUsers,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "trader",
		}}},
		{{Key: "$unwind", Value: "$trader"}},
		{{Key: "$match", Value: bson.M{"trader.role": domain.RoleTrader, "trader.isActive": true}}},
		{{Key: "$sort", Value: bson.D{{Key: "estimateCount", Value: -1}, {Key: "totalValue", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	type row struct {
		TraderID      string          `bson:"_id"`
		EstimateCount int64           `bson:"estimateCount"`
		TotalValue    decimal.Decimal `bson:"totalValue"`
		Trader        domain.User     `bson:"trader"`
	}
	rows, err := aggregate[row](ctx, r.estimates, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top traders: %w", err)
	}

	out := make([]ports.TraderRollup, 0, len(rows))
	for _, rw := range rows {
		t := ports.TraderRollup{
			TraderID:      rw.TraderID,
			Name:          rw.Trader.Name,
			EstimateCount: rw.EstimateCount,
			TotalValue:    rw.TotalValue,
		}
		if rw.Trader.TraderProfile != nil {
			t.BusinessName = rw.Trader.TraderProfile.BusinessName
		}
		out = append(out, t)
	}
	return out, nil
}
