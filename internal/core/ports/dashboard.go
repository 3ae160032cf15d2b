package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// EstimateCounts is the raw estimate tally for a scope.
type EstimateCounts struct {
	Total          int64
	ThisMonth      int64
	Converted      int64
	Pending        int64
	ThisMonthValue decimal.Decimal
}

// CustomerRollup aggregates the estimates billed to one party. Party is the
// bill-to snapshot of the most recent estimate.
type CustomerRollup struct {
	Party          domain.PartySummary
	EstimateCount  int64
	TotalValue     decimal.Decimal
	ConvertedCount int64
}

// MonthRollup aggregates estimates created in one calendar month.
type MonthRollup struct {
	Year           int
	Month          int
	Count          int64
	TotalValue     decimal.Decimal
	ConvertedCount int64
}

// TraderRollup aggregates estimates per trader for the admin view.
type TraderRollup struct {
	TraderID      string
	Name          string
	BusinessName  string
	EstimateCount int64
	TotalValue    decimal.Decimal
}

// DashboardRepository runs the read-only aggregation queries.
type DashboardRepository interface {
	EstimateCounts(ctx context.Context, scope domain.Scope, monthStart time.Time) (EstimateCounts, error)
	CountCustomers(ctx context.Context, scope domain.Scope) (int64, error)
	CountItems(ctx context.Context, scope domain.Scope) (int64, error)
	CountBrands(ctx context.Context, scope domain.Scope) (int64, error)
	RecentEstimates(ctx context.Context, scope domain.Scope, limit int) ([]*domain.Estimate, error)
	TopCustomers(ctx context.Context, scope domain.Scope, limit int) ([]CustomerRollup, error)
	MonthlyStats(ctx context.Context, scope domain.Scope, since time.Time) ([]MonthRollup, error)
	UsersByRole(ctx context.Context) (map[string]int64, error)
	TopTraders(ctx context.Context, limit int) ([]TraderRollup, error)
}

// DashboardStats is the headline card set.
type DashboardStats struct {
	TotalEstimates     int64           `json:"totalEstimates"`
	ThisMonthEstimates int64           `json:"thisMonthEstimates"`
	ConvertedEstimates int64           `json:"convertedEstimates"`
	PendingEstimates   int64           `json:"pendingEstimates"`
	TotalCustomers     int64           `json:"totalCustomers"`
	TotalItems         int64           `json:"totalItems"`
	TotalBrands        int64           `json:"totalBrands"`
	ThisMonthValue     decimal.Decimal `json:"thisMonthValue"`
	ConversionRate     decimal.Decimal `json:"conversionRate"`
}

// TopCustomer is one row of the top customers table.
type TopCustomer struct {
	Customer       domain.PartySummary `json:"customer"`
	EstimateCount  int64               `json:"estimateCount"`
	TotalValue     decimal.Decimal     `json:"totalValue"`
	ConvertedCount int64               `json:"convertedCount"`
	ConversionRate decimal.Decimal     `json:"conversionRate"`
}

// MonthlyStat is one month of the trailing activity chart.
type MonthlyStat struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Count          int64           `json:"count"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	ConvertedCount int64           `json:"convertedCount"`
}

// TopTrader is one row of the admin trader leaderboard.
type TopTrader struct {
	TraderID      string          `json:"traderId"`
	Name          string          `json:"name"`
	BusinessName  string          `json:"businessName,omitempty"`
	EstimateCount int64           `json:"estimateCount"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// AdminStats is the system-wide overview.
type AdminStats struct {
	UsersByRole    map[string]int64 `json:"usersByRole"`
	TotalUsers     int64            `json:"totalUsers"`
	TotalEstimates int64            `json:"totalEstimates"`
	TotalCustomers int64            `json:"totalCustomers"`
	TotalItems     int64            `json:"totalItems"`
	TotalBrands    int64            `json:"totalBrands"`
	TopTraders     []TopTrader      `json:"topTraders"`
}

// DashboardService computes the dashboard rollups for the caller's scope.
type DashboardService interface {
	Stats(ctx context.Context, actor domain.Actor) (*DashboardStats, error)
	RecentEstimates(ctx context.Context, actor domain.Actor) ([]*domain.Estimate, error)
	TopCustomers(ctx context.Context, actor domain.Actor) ([]TopCustomer, error)
	MonthlyStats(ctx context.Context, actor domain.Actor) ([]MonthlyStat, error)
	AdminStats(ctx context.Context, actor domain.Actor) (*AdminStats, error)
}
