package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// stubDashboardRepo returns canned rollups and records the scopes it was
// queried with.
type stubDashboardRepo struct {
	counts    ports.EstimateCounts
	customers []ports.CustomerRollup
	months    []ports.MonthRollup
	byRole    map[string]int64
	traders   []ports.TraderRollup

	scopes     []domain.Scope
	monthStart time.Time
	since      time.Time
}

func (r *stubDashboardRepo) EstimateCounts(_ context.Context, scope domain.Scope, monthStart time.Time) (ports.EstimateCounts, error) {
	r.scopes = append(r.scopes, scope)
	r.monthStart = monthStart
	return r.counts, nil
}

func (r *stubDashboardRepo) CountCustomers(context.Context, domain.Scope) (int64, error) {
	return 4, nil
}

func (r *stubDashboardRepo) CountItems(context.Context, domain.Scope) (int64, error) {
	return 7, nil
}

func (r *stubDashboardRepo) CountBrands(context.Context, domain.Scope) (int64, error) {
	return 2, nil
}

func (r *stubDashboardRepo) RecentEstimates(_ context.Context, scope domain.Scope, limit int) ([]*domain.Estimate, error) {
	r.scopes = append(r.scopes, scope)
	return make([]*domain.Estimate, limit), nil
}

func (r *stubDashboardRepo) TopCustomers(context.Context, domain.Scope, int) ([]ports.CustomerRollup, error) {
	return r.customers, nil
}

func (r *stubDashboardRepo) MonthlyStats(_ context.Context, _ domain.Scope, since time.Time) ([]ports.MonthRollup, error) {
	r.since = since
	return r.months, nil
}

func (r *stubDashboardRepo) UsersByRole(context.Context) (map[string]int64, error) {
	return r.byRole, nil
}

func (r *stubDashboardRepo) TopTraders(context.Context, int) ([]ports.TraderRollup, error) {
	return r.traders, nil
}

func newDashboardFixture(repo *stubDashboardRepo) *DashboardService {
	svc := NewDashboardService(repo, discardLogger)
	svc.now = func() time.Time { return time.Date(2025, time.February, 14, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestConversionRate(t *testing.T) {
	cases := []struct {
		converted, total int64
		want             string
	}{
		{0, 0, "0"},
		{1, 3, "33.33"},
		{2, 3, "66.67"},
		{5, 5, "100"},
		{0, 9, "0"},
	}
	for _, tc := range cases {
		if got := ConversionRate(tc.converted, tc.total); !got.Equal(d(tc.want)) {
			t.Errorf("ConversionRate(%d, %d) = %s, want %s", tc.converted, tc.total, got, tc.want)
		}
	}
}

func TestDashboardService_Stats(t *testing.T) {
	repo := &stubDashboardRepo{counts: ports.EstimateCounts{
		Total: 8, ThisMonth: 3, Converted: 2, Pending: 4, ThisMonthValue: d("1520.5049"),
	}}
	svc := newDashboardFixture(repo)

	stats, err := svc.Stats(context.Background(), traderA)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalEstimates != 8 || stats.TotalCustomers != 4 || stats.TotalItems != 7 || stats.TotalBrands != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if !stats.ConversionRate.Equal(d("25")) {
		t.Errorf("conversion rate = %s, want 25", stats.ConversionRate)
	}
	if !stats.ThisMonthValue.Equal(d("1520.50")) {
		t.Errorf("this month value = %s, want 1520.50", stats.ThisMonthValue)
	}
	if repo.scopes[0].TraderID != traderA.ID {
		t.Errorf("trader stats must be scoped, got %+v", repo.scopes[0])
	}
	if want := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC); !repo.monthStart.Equal(want) {
		t.Errorf("month start = %v, want %v", repo.monthStart, want)
	}

	if _, err := svc.Stats(context.Background(), domain.Actor{ID: "c", Role: domain.RoleCustomer}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("customer: expected ErrForbidden, got %v", err)
	}
}

func TestDashboardService_RecentAndTopCustomers(t *testing.T) {
	repo := &stubDashboardRepo{customers: []ports.CustomerRollup{
		{Party: domain.PartySummary{Name: "Ravi"}, EstimateCount: 4, ConvertedCount: 1, TotalValue: d("400")},
		{Party: domain.PartySummary{Name: "Meena"}, EstimateCount: 0, TotalValue: decimal.Zero},
	}}
	svc := newDashboardFixture(repo)

	recent, err := svc.RecentEstimates(context.Background(), adminActor)
	if err != nil || len(recent) != recentEstimatesLimit {
		t.Fatalf("RecentEstimates: %d rows, err %v", len(recent), err)
	}
	if !repo.scopes[0].Unrestricted() {
		t.Errorf("admin must see every tenant, got %+v", repo.scopes[0])
	}

	top, err := svc.TopCustomers(context.Background(), traderA)
	if err != nil {
		t.Fatalf("TopCustomers: %v", err)
	}
	if len(top) != 2 || !top[0].ConversionRate.Equal(d("25")) || !top[1].ConversionRate.IsZero() {
		t.Errorf("unexpected top customers %+v", top)
	}
}

func TestDashboardService_MonthlyStats_FillsGaps(t *testing.T) {
	repo := &stubDashboardRepo{months: []ports.MonthRollup{
		{Year: 2024, Month: 10, Count: 2, TotalValue: d("200"), ConvertedCount: 1},
		{Year: 2025, Month: 2, Count: 1, TotalValue: d("50.125")},
	}}
	svc := newDashboardFixture(repo)

	stats, err := svc.MonthlyStats(context.Background(), traderA)
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if want := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC); !repo.since.Equal(want) {
		t.Errorf("since = %v, want %v", repo.since, want)
	}
	if len(stats) != 6 {
		t.Fatalf("got %d months, want 6", len(stats))
	}

	wantMonths := [][2]int{{2024, 9}, {2024, 10}, {2024, 11}, {2024, 12}, {2025, 1}, {2025, 2}}
	for i, wm := range wantMonths {
		if stats[i].Year != wm[0] || stats[i].Month != wm[1] {
			t.Errorf("stats[%d] = %d-%d, want %d-%d", i, stats[i].Year, stats[i].Month, wm[0], wm[1])
		}
	}
	if stats[0].Count != 0 || !stats[0].TotalValue.IsZero() {
		t.Errorf("empty month not zero-filled: %+v", stats[0])
	}
	if stats[1].Count != 2 || stats[1].ConvertedCount != 1 || !stats[1].TotalValue.Equal(d("200")) {
		t.Errorf("october = %+v", stats[1])
	}
	if stats[5].Count != 1 || !stats[5].TotalValue.Equal(d("50.13")) {
		t.Errorf("february = %+v", stats[5])
	}
}

func TestDashboardService_AdminStats(t *testing.T) {
	repo := &stubDashboardRepo{
		counts: ports.EstimateCounts{Total: 12},
		byRole: map[string]int64{domain.RoleAdmin: 1, domain.RoleTrader: 3, domain.RoleCustomer: 6},
		traders: []ports.TraderRollup{
			{TraderID: "trader-a", Name: "A", BusinessName: "A Traders", EstimateCount: 9, TotalValue: d("900")},
		},
	}
	svc := newDashboardFixture(repo)

	if _, err := svc.AdminStats(context.Background(), traderA); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("trader: expected ErrForbidden, got %v", err)
	}

	stats, err := svc.AdminStats(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("AdminStats: %v", err)
	}
	if stats.TotalUsers != 10 || stats.TotalEstimates != 12 || stats.TotalBrands != 2 {
		t.Errorf("unexpected admin stats %+v", stats)
	}
	if len(stats.TopTraders) != 1 || stats.TopTraders[0].BusinessName != "A Traders" {
		t.Errorf("top traders = %+v", stats.TopTraders)
	}
}
