package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

const defaultPickerLimit = 1000

// CustomerService manages the per-trader customer directory.
type CustomerService struct {
	repo   ports.CustomerRepository
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewCustomerService(repo ports.CustomerRepository, users ports.UserRepository, logger zerolog.Logger) *CustomerService {
	return &CustomerService{repo: repo, users: users, logger: logger}
}

func (s *CustomerService) Create(ctx context.Context, actor domain.Actor, in ports.CreateCustomerInput) (*domain.Customer, error) {
	owner, err := domain.OwnerFor(actor, in.TraderID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" {
		return nil, domain.NewValidationError("name", "Customer name is required")
	}
	if phone == "" {
		return nil, domain.NewValidationError("phone", "Phone number is required")
	}
	if !domain.ValidReferralType(in.ReferredByType) {
		return nil, domain.NewValidationError("referredByType", "Invalid referral type")
	}
	tags, err := domain.NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.PhoneTaken(ctx, owner, phone, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrDuplicatePhone
	}

	now := time.Now().UTC()
	c := &domain.Customer{
		TraderID:       owner,
		UserID:         in.UserID,
		Name:           name,
		Phone:          phone,
		Email:          strings.TrimSpace(in.Email),
		Address:        in.Address,
		GSTNumber:      strings.TrimSpace(in.GSTNumber),
		ReferredBy:     in.ReferredBy,
		ReferredByType: in.ReferredByType,
		Tags:           tags,
		Notes:          strings.TrimSpace(in.Notes),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("customer_id", c.ID).Str("trader_id", owner).Msg("customer created")
	return c, nil
}

// load fetches a customer and checks it falls inside the caller's scope.
// Missing rows are reported before ownership.
func (s *CustomerService) load(ctx context.Context, actor domain.Actor, id string) (*domain.Customer, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Check(c.TraderID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Customer, error) {
	return s.load(ctx, actor, id)
}

func (s *CustomerService) Update(ctx context.Context, actor domain.Actor, id string, in ports.UpdateCustomerInput) (*domain.Customer, error) {
	c, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "Customer name cannot be empty")
		}
		c.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			return nil, domain.NewValidationError("phone", "Phone number cannot be empty")
		}
		if phone != c.Phone {
			taken, err := s.repo.PhoneTaken(ctx, c.TraderID, phone, c.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrDuplicatePhone
			}
			c.Phone = phone
		}
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.GSTNumber != nil {
		c.GSTNumber = strings.TrimSpace(*in.GSTNumber)
	}
	if in.ReferredBy != nil {
		c.ReferredBy = *in.ReferredBy
	}
	if in.ReferredByType != nil {
		if !domain.ValidReferralType(*in.ReferredByType) {
			return nil, domain.NewValidationError("referredByType", "Invalid referral type")
		}
		c.ReferredByType = *in.ReferredByType
	}
	if in.Tags != nil {
		tags, err := domain.NormalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		c.Tags = tags
	}
	if in.Notes != nil {
		c.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	c, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	s.logger.Info().Str("customer_id", c.ID).Str("actor_id", actor.ID).Msg("customer deleted")
	return nil
}

func (s *CustomerService) List(ctx context.Context, actor domain.Actor, filter ports.CustomerFilter) (*ports.PageResult[*domain.Customer], error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	filter.Scope = scope
	filter.Page = ports.NewPage(filter.Page.Number, filter.Page.Limit)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

func (s *CustomerService) FindByPhone(ctx context.Context, actor domain.Actor, phone string) (*domain.Customer, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByPhone(ctx, scope, strings.TrimSpace(phone))
}

// ForEstimate lists every party the caller can bill: its active directory
// customers and all active registered customer accounts, merged by name.
// Each source gets half of limit.
func (s *CustomerService) ForEstimate(ctx context.Context, actor domain.Actor, search string, limit int) ([]ports.BillableOption, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPickerLimit
	}
	half := limit / 2
	if half < 1 {
		half = 1
	}

	directory, _, err := s.repo.List(ctx, ports.CustomerFilter{
		Scope:      scope,
		Search:     search,
		ActiveOnly: true,
		SortByName: true,
		Page:       ports.Page{Number: 1, Limit: half},
	})
	if err != nil {
		return nil, fmt.Errorf("list directory customers: %w", err)
	}
	registered, _, err := s.users.List(ctx, ports.UserFilter{
		Role:       domain.RoleCustomer,
		Search:     search,
		ActiveOnly: true,
		SortByName: true,
		Page:       ports.Page{Number: 1, Limit: half},
	})
	if err != nil {
		return nil, fmt.Errorf("list registered customers: %w", err)
	}

	out := make([]ports.BillableOption, 0, len(directory)+len(registered))
	for _, c := range directory {
		opt := billableOption(c, c.Name, c.Tags)
		opt.IsRegistered = c.UserID != ""
		out = append(out, opt)
	}
	for _, u := range registered {
		opt := billableOption(u, u.Name, u.Tags)
		opt.DisplayName += " [Registered]"
		opt.IsRegistered = true
		if u.CustomerProfile != nil {
			opt.CompanyName = u.CustomerProfile.CompanyName
		}
		out = append(out, opt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func billableOption(p domain.BillableParty, name string, tags []string) ports.BillableOption {
	ref := p.PartyRef()
	addr := p.BillingAddress()
	if tags == nil {
		tags = []string{}
	}
	display := fmt.Sprintf("%s (%s)", name, p.ContactPhone())
	if email := p.ContactEmail(); email != "" {
		display += " - " + email
	}
	return ports.BillableOption{
		ID:           ref.ID,
		Name:         name,
		Phone:        p.ContactPhone(),
		Email:        p.ContactEmail(),
		Address:      addr,
		GSTNumber:    p.GSTIN(),
		Tags:         tags,
		DisplayName:  display,
		FullAddress:  joinAddress(addr),
		CustomerType: ref.Kind,
	}
}

func joinAddress(a domain.Address) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
