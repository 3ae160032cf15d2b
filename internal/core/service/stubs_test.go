package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
	next  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Tags = append([]string(nil), u.Tags...)
	return &clone
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		r.next++
		u.ID = fmt.Sprintf("user-%d", r.next)
	}
	r.users[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	created := r.add(cloneUser(user))
	return cloneUser(created), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByEmailOrPhone(_ context.Context, email, phone, excludeID string) (bool, error) {
	for _, u := range r.users {
		if u.ID == excludeID {
			continue
		}
		if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		if f.ApprovalStatus != "" && u.ApprovalStatus != f.ApprovalStatus {
			continue
		}
		if f.Search != "" && !containsFold(f.Search, u.Name, u.Email, u.Phone) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page)
}

type stubCustomerRepo struct {
	customers map[string]*domain.Customer
	next      int
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	clone := *c
	clone.Tags = append([]string(nil), c.Tags...)
	return &clone
}

func (r *stubCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	if c.ID == "" {
		r.next++
		c.ID = fmt.Sprintf("cust-%d", r.next)
	}
	r.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (r *stubCustomerRepo) FindByPhone(_ context.Context, scope domain.Scope, phone string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.Phone == phone && scope.Owns(c.TraderID) {
			return cloneCustomer(c), nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *stubCustomerRepo) PhoneTaken(_ context.Context, traderID, phone, excludeID string) (bool, error) {
	for _, c := range r.customers {
		if c.ID != excludeID && c.TraderID == traderID && c.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *domain.Customer) error {
	r.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id string) error {
	delete(r.customers, id)
	return nil
}

func (r *stubCustomerRepo) List(_ context.Context, f ports.CustomerFilter) ([]*domain.Customer, int64, error) {
	var out []*domain.Customer
	for _, c := range r.customers {
		if !f.Scope.Owns(c.TraderID) {
			continue
		}
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.Search != "" && !containsFold(f.Search, c.Name, c.Phone, c.Email) {
			continue
		}
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page)
}

type stubBrandRepo struct {
	brands map[string]*domain.Brand
	next   int
}

func newStubBrandRepo() *stubBrandRepo {
	return &stubBrandRepo{brands: make(map[string]*domain.Brand)}
}

func (r *stubBrandRepo) Create(_ context.Context, b *domain.Brand) error {
	if b.ID == "" {
		r.next++
		b.ID = fmt.Sprintf("brand-%d", r.next)
	}
	clone := *b
	r.brands[b.ID] = &clone
	return nil
}

func (r *stubBrandRepo) FindByID(_ context.Context, id string) (*domain.Brand, error) {
	b, ok := r.brands[id]
	if !ok {
		return nil, domain.ErrBrandNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *stubBrandRepo) NameTaken(_ context.Context, traderID, name, excludeID string) (bool, error) {
	for _, b := range r.brands {
		if b.ID != excludeID && b.TraderID == traderID && domain.BrandKey(b.Name) == domain.BrandKey(name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubBrandRepo) Update(_ context.Context, b *domain.Brand) error {
	clone := *b
	r.brands[b.ID] = &clone
	return nil
}

func (r *stubBrandRepo) Delete(_ context.Context, id string) error {
	delete(r.brands, id)
	return nil
}

func (r *stubBrandRepo) List(_ context.Context, f ports.BrandFilter) ([]*domain.Brand, int64, error) {
	var out []*domain.Brand
	for _, b := range r.brands {
		if f.Scope.Owns(b.TraderID) && (f.Search == "" || containsFold(f.Search, b.Name)) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page)
}

type stubItemRepo struct {
	items map[string]*domain.Item
	next  int
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[string]*domain.Item)}
}

func (r *stubItemRepo) Create(_ context.Context, it *domain.Item) error {
	if it.ID == "" {
		r.next++
		it.ID = fmt.Sprintf("item-%d", r.next)
	}
	clone := *it
	r.items[it.ID] = &clone
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id string) (*domain.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *stubItemRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Item, error) {
	out := make(map[string]*domain.Item, len(ids))
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			clone := *it
			out[id] = &clone
		}
	}
	return out, nil
}

func (r *stubItemRepo) Update(_ context.Context, it *domain.Item) error {
	clone := *it
	r.items[it.ID] = &clone
	return nil
}

func (r *stubItemRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *stubItemRepo) List(_ context.Context, f ports.ItemFilter) ([]*domain.Item, int64, error) {
	var out []*domain.Item
	for _, it := range r.items {
		if !f.Scope.Owns(it.TraderID) {
			continue
		}
		if f.BrandID != "" && it.Brand.ID != f.BrandID {
			continue
		}
		if f.Search != "" && !containsFold(f.Search, it.Name, it.Category) {
			continue
		}
		clone := *it
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page)
}

func (r *stubItemRepo) Categories(_ context.Context, scope domain.Scope) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range r.items {
		if _, ok := seen[it.Category]; ok || !scope.Owns(it.TraderID) {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out, nil
}

// stubEstimateRepo enforces the (traderId, estimateNumber) uniqueness the real
// collection index provides.
type stubEstimateRepo struct {
	mu        sync.Mutex
	estimates map[string]*domain.Estimate
	next      int
	createErr error
	updates   int
}

func newStubEstimateRepo() *stubEstimateRepo {
	return &stubEstimateRepo{estimates: make(map[string]*domain.Estimate)}
}

func cloneEstimate(e *domain.Estimate) *domain.Estimate {
	clone := *e
	clone.Items = append([]domain.LineItem(nil), e.Items...)
	clone.SentVia = append([]domain.SendChannel(nil), e.SentVia...)
	if e.Party != nil {
		p := *e.Party
		clone.Party = &p
	}
	return &clone
}

func (r *stubEstimateRepo) Create(_ context.Context, e *domain.Estimate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.estimates {
		if existing.TraderID == e.TraderID && existing.EstimateNumber == e.EstimateNumber {
			return domain.ErrDuplicateEstimateNum
		}
	}
	r.next++
	e.ID = fmt.Sprintf("est-%d", r.next)
	r.estimates[e.ID] = cloneEstimate(e)
	return nil
}

func (r *stubEstimateRepo) FindByID(_ context.Context, id string) (*domain.Estimate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.estimates[id]
	if !ok {
		return nil, domain.ErrEstimateNotFound
	}
	return cloneEstimate(e), nil
}

func (r *stubEstimateRepo) Update(_ context.Context, e *domain.Estimate, expected domain.EstimateStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.estimates[e.ID]
	if !ok {
		return domain.ErrEstimateNotFound
	}
	if stored.Status != expected {
		return domain.ErrEstimateConflict
	}
	r.updates++
	r.estimates[e.ID] = cloneEstimate(e)
	return nil
}

func (r *stubEstimateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.estimates[id]; !ok {
		return domain.ErrEstimateNotFound
	}
	delete(r.estimates, id)
	return nil
}

func (r *stubEstimateRepo) List(_ context.Context, f ports.EstimateFilter) ([]*domain.Estimate, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Estimate
	for _, e := range r.estimates {
		if !f.Scope.Owns(e.TraderID) {
			continue
		}
		if len(f.Parties) > 0 && !billedTo(e, f.Parties) {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Search != "" && !containsFold(f.Search, e.EstimateNumber) {
			continue
		}
		if f.ItemID != "" && !hasItem(e, f.ItemID) {
			continue
		}
		out = append(out, cloneEstimate(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EstimateNumber > out[j].EstimateNumber })
	return paginate(out, f.Page)
}

func (r *stubEstimateRepo) MarkViewed(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.estimates[id]
	if !ok {
		return false, domain.ErrEstimateNotFound
	}
	if e.Status != domain.EstimateSent {
		return false, nil
	}
	e.Status = domain.EstimateViewed
	e.ViewedAt = &at
	return true, nil
}

func hasItem(e *domain.Estimate, itemID string) bool {
	for _, l := range e.Items {
		if l.ItemID == itemID {
			return true
		}
	}
	return false
}

// stubSequence hands out 1, 2, 3... per (trader, year). When failWith is set
// every call fails.
type stubSequence struct {
	mu       sync.Mutex
	counters map[string]int64
	failWith error
}

func newStubSequence() *stubSequence {
	return &stubSequence{counters: make(map[string]int64)}
}

func (s *stubSequence) Next(_ context.Context, traderID string, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	key := fmt.Sprintf("%s:%d", traderID, year)
	s.counters[key]++
	return s.counters[key], nil
}

type stubNotifier struct {
	events []ports.EstimateSentEvent
}

func (n *stubNotifier) Enqueue(e ports.EstimateSentEvent) { n.events = append(n.events, e) }

type stubPrincipals struct {
	invalidated []string
}

func (p *stubPrincipals) Resolve(context.Context, string) (*ports.Principal, error) {
	return nil, errors.New("not used")
}

func (p *stubPrincipals) Invalidate(_ context.Context, userID string) {
	p.invalidated = append(p.invalidated, userID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func containsFold(needle string, haystack ...string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func paginate[T any](rows []T, p ports.Page) ([]T, int64, error) {
	total := int64(len(rows))
	if p.Limit == 0 {
		return rows, total, nil
	}
	skip := int(p.Skip())
	if skip > len(rows) {
		return []T{}, total, nil
	}
	end := skip + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[skip:end], total, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	adminActor = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	traderA    = domain.Actor{ID: "trader-a", Role: domain.RoleTrader}
	traderB    = domain.Actor{ID: "trader-b", Role: domain.RoleTrader}
)
