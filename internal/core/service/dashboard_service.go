package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

const (
	recentEstimatesLimit = 5
	topCustomersLimit    = 5
	topTradersLimit      = 5
	monthlyStatsMonths   = 6
)

var hundred = decimal.NewFromInt(100)

// DashboardService computes read-only rollups over the caller's scope.
type DashboardService struct {
	repo   ports.DashboardRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewDashboardService(repo ports.DashboardRepository, logger zerolog.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ConversionRate is converted/total as a percentage rounded to two places,
// and zero when there is nothing to convert.
func ConversionRate(converted, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(converted).Mul(hundred).DivRound(decimal.NewFromInt(total), 2)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func (s *DashboardService) Stats(ctx context.Context, actor domain.Actor) (*ports.DashboardStats, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.EstimateCounts(ctx, scope, monthStart(s.now()))
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CountCustomers(ctx, scope)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.CountItems(ctx, scope)
	if err != nil {
		return nil, err
	}
	brands, err := s.repo.CountBrands(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &ports.DashboardStats{
		TotalEstimates:     counts.Total,
		ThisMonthEstimates: counts.ThisMonth,
		ConvertedEstimates: counts.Converted,
		PendingEstimates:   counts.Pending,
		TotalCustomers:     customers,
		TotalItems:         items,
		TotalBrands:        brands,
		ThisMonthValue:     domain.Round2(counts.ThisMonthValue),
		ConversionRate:     ConversionRate(counts.Converted, counts.Total),
	}, nil
}

func (s *DashboardService) RecentEstimates(ctx context.Context, actor domain.Actor) ([]*domain.Estimate, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.RecentEstimates(ctx, scope, recentEstimatesLimit)
}

func (s *DashboardService) TopCustomers(ctx context.Context, actor domain.Actor) ([]ports.TopCustomer, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	rollups, err := s.repo.TopCustomers(ctx, scope, topCustomersLimit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.TopCustomer, 0, len(rollups))
	for _, r := range rollups {
		out = append(out, ports.TopCustomer{
			Customer:       r.Party,
			EstimateCount:  r.EstimateCount,
			TotalValue:     domain.Round2(r.TotalValue),
			ConvertedCount: r.ConvertedCount,
			ConversionRate: ConversionRate(r.ConvertedCount, r.EstimateCount),
		})
	}
	return out, nil
}

// MonthlyStats covers the current month and the five before it, oldest
// first. Months without estimates are reported with zero values.
func (s *DashboardService) MonthlyStats(ctx context.Context, actor domain.Actor) ([]ports.MonthlyStat, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	first := monthStart(s.now()).AddDate(0, -(monthlyStatsMonths - 1), 0)
	rollups, err := s.repo.MonthlyStats(ctx, scope, first)
	if err != nil {
		return nil, err
	}

	type key struct{ year, month int }
	byMonth := make(map[key]ports.MonthRollup, len(rollups))
	for _, r := range rollups {
		byMonth[key{r.Year, r.Month}] = r
	}

	out := make([]ports.MonthlyStat, 0, monthlyStatsMonths)
	for i := 0; i < monthlyStatsMonths; i++ {
		m := first.AddDate(0, i, 0)
		stat := ports.MonthlyStat{Year: m.Year(), Month: int(m.Month()), TotalValue: decimal.Zero}
		if r, ok := byMonth[key{m.Year(), int(m.Month())}]; ok {
			stat.Count = r.Count
			stat.TotalValue = domain.Round2(r.TotalValue)
			stat.ConvertedCount = r.ConvertedCount
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *DashboardService) AdminStats(ctx context.Context, actor domain.Actor) (*ports.AdminStats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	all := domain.Scope{}

	byRole, err := s.repo.UsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	var totalUsers int64
	for _, n := range byRole {
		totalUsers += n
	}
	counts, err := s.repo.EstimateCounts(ctx, all, monthStart(s.now()))
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CountCustomers(ctx, all)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.CountItems(ctx, all)
	if err != nil {
		return nil, err
	}
	brands, err := s.repo.CountBrands(ctx, all)
	if err != nil {
		return nil, err
	}
	traders, err := s.repo.TopTraders(ctx, topTradersLimit)
	if err != nil {
		return nil, err
	}

	top := make([]ports.TopTrader, 0, len(traders))
	for _, t := range traders {
		top = append(top, ports.TopTrader{
			TraderID:      t.TraderID,
			Name:          t.Name,
			BusinessName:  t.BusinessName,
			EstimateCount: t.EstimateCount,
			TotalValue:    domain.Round2(t.TotalValue),
		})
	}
	return &ports.AdminStats{
		UsersByRole:    byRole,
		TotalUsers:     totalUsers,
		TotalEstimates: counts.Total,
		TotalCustomers: customers,
		TotalItems:     items,
		TotalBrands:    brands,
		TopTraders:     top,
	}, nil
}
