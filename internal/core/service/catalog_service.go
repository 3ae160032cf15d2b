package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// CatalogService manages the brands and priced items of each trader.
type CatalogService struct {
	brands ports.BrandRepository
	items  ports.ItemRepository
	logger zerolog.Logger
}

func NewCatalogService(brands ports.BrandRepository, items ports.ItemRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{brands: brands, items: items, logger: logger}
}

// ── Brands ────────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateBrand(ctx context.Context, actor domain.Actor, in ports.BrandInput) (*domain.Brand, error) {
	owner, err := domain.OwnerFor(actor, in.TraderID)
	if err != nil {
		return nil, err
	}
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, domain.NewValidationError("name", "Brand name is required")
	}
	if err := s.checkBrandName(ctx, owner, name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &domain.Brand{
		TraderID:  owner,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		b.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if err := s.brands.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().Str("brand_id", b.ID).Str("trader_id", owner).Msg("brand created")
	return b, nil
}

func (s *CatalogService) checkBrandName(ctx context.Context, traderID, name, excludeID string) error {
	taken, err := s.brands.NameTaken(ctx, traderID, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return &domain.ValidationError{Fields: []domain.FieldError{{Param: "name", Msg: domain.ErrDuplicateBrand.Error()}}}
	}
	return nil
}

func (s *CatalogService) loadBrand(ctx context.Context, actor domain.Actor, id string) (*domain.Brand, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	b, err := s.brands.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Check(b.TraderID); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *CatalogService) GetBrand(ctx context.Context, actor domain.Actor, id string) (*domain.Brand, error) {
	return s.loadBrand(ctx, actor, id)
}

func (s *CatalogService) UpdateBrand(ctx context.Context, actor domain.Actor, id string, in ports.BrandInput) (*domain.Brand, error) {
	b, err := s.loadBrand(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "Brand name cannot be empty")
		}
		if domain.BrandKey(name) != domain.BrandKey(b.Name) {
			if err := s.checkBrandName(ctx, b.TraderID, name, b.ID); err != nil {
				return nil, err
			}
		}
		b.Name = name
	}
	if in.Description != nil {
		b.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.brands.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, actor domain.Actor, id string) error {
	b, err := s.loadBrand(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.brands.Delete(ctx, b.ID)
}

func (s *CatalogService) ListBrands(ctx context.Context, actor domain.Actor, filter ports.BrandFilter) (*ports.PageResult[*domain.Brand], error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	filter.Scope = scope
	filter.Page = ports.NewPage(filter.Page.Number, filter.Page.Limit)
	brands, total, err := s.brands.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ports.NewPageResult(brands, total, filter.Page), nil
}

// ── Items ─────────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateItem(ctx context.Context, actor domain.Actor, in ports.ItemInput) (*domain.Item, error) {
	owner, err := domain.OwnerFor(actor, in.TraderID)
	if err != nil {
		return nil, err
	}

	var fields []domain.FieldError
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		fields = append(fields, domain.FieldError{Param: "name", Msg: "Item name is required"})
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		fields = append(fields, domain.FieldError{Param: "category", Msg: "Category is required"})
	}
	if in.BrandID == nil || *in.BrandID == "" {
		fields = append(fields, domain.FieldError{Param: "brand", Msg: "Brand is required"})
	}
	if in.UOM == nil || !in.UOM.Valid() {
		fields = append(fields, domain.FieldError{Param: "uom", Msg: "Invalid unit of measurement"})
	}
	if in.CurrentRate == nil || in.CurrentRate.IsNegative() {
		fields = append(fields, domain.FieldError{Param: "currentRate", Msg: "Rate must be a positive number"})
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	brand, err := s.loadBrand(ctx, actor, *in.BrandID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	it := &domain.Item{
		TraderID:    owner,
		Name:        strings.TrimSpace(*in.Name),
		Category:    strings.TrimSpace(*in.Category),
		Brand:       domain.BrandRef{ID: brand.ID, Name: brand.Name},
		UOM:         *in.UOM,
		CurrentRate: *in.CurrentRate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
	}
	if in.Specifications != nil {
		it.Specifications = strings.TrimSpace(*in.Specifications)
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, err
	}
	s.logger.Info().Str("item_id", it.ID).Str("trader_id", owner).Msg("item created")
	return it, nil
}

func (s *CatalogService) loadItem(ctx context.Context, actor domain.Actor, id string) (*domain.Item, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	it, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.Check(it.TraderID); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *CatalogService) GetItem(ctx context.Context, actor domain.Actor, id string) (*domain.Item, error) {
	return s.loadItem(ctx, actor, id)
}

func (s *CatalogService) UpdateItem(ctx context.Context, actor domain.Actor, id string, in ports.ItemInput) (*domain.Item, error) {
	it, err := s.loadItem(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "Item name cannot be empty")
		}
		it.Name = name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return nil, domain.NewValidationError("category", "Category cannot be empty")
		}
		it.Category = category
	}
	if in.BrandID != nil && *in.BrandID != it.Brand.ID {
		brand, err := s.loadBrand(ctx, actor, *in.BrandID)
		if err != nil {
			return nil, err
		}
		it.Brand = domain.BrandRef{ID: brand.ID, Name: brand.Name}
	}
	if in.UOM != nil {
		if !in.UOM.Valid() {
			return nil, domain.NewValidationError("uom", "Invalid unit of measurement")
		}
		it.UOM = *in.UOM
	}
	if in.CurrentRate != nil {
		if in.CurrentRate.IsNegative() {
			return nil, domain.NewValidationError("currentRate", "Rate must be a positive number")
		}
		it.CurrentRate = *in.CurrentRate
	}
	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
	}
	if in.Specifications != nil {
		it.Specifications = strings.TrimSpace(*in.Specifications)
	}
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}

	it.UpdatedAt = time.Now().UTC()
	if err := s.items.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, actor domain.Actor, id string) error {
	it, err := s.loadItem(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.items.Delete(ctx, it.ID)
}

func (s *CatalogService) ListItems(ctx context.Context, actor domain.Actor, filter ports.ItemFilter) (*ports.PageResult[*domain.Item], error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	filter.Scope = scope
	filter.Page = ports.NewPage(filter.Page.Number, filter.Page.Limit)
	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

func (s *CatalogService) Categories(ctx context.Context, actor domain.Actor) ([]string, error) {
	scope, err := domain.TenantScope(actor)
	if err != nil {
		return nil, err
	}
	return s.items.Categories(ctx, scope)
}
