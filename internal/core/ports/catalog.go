package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// BrandFilter narrows brand listings.
type BrandFilter struct {
	Scope  domain.Scope
	Search string
	Page   Page
}

// BrandRepository defines persistence operations for brands. Names are
// compared through domain.BrandKey.
type BrandRepository interface {
	Create(ctx context.Context, b *domain.Brand) error
	FindByID(ctx context.Context, id string) (*domain.Brand, error)
	NameTaken(ctx context.Context, traderID, name, excludeID string) (bool, error)
	Update(ctx context.Context, b *domain.Brand) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter BrandFilter) ([]*domain.Brand, int64, error)
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Scope    domain.Scope
	Search   string // partial match on name or category
	Category string
	BrandID  string
	Page     Page
}

// ItemRepository defines persistence operations for catalog items. Items are
// returned with the brand name filled in.
type ItemRepository interface {
	Create(ctx context.Context, it *domain.Item) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error)
	Update(ctx context.Context, it *domain.Item) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, int64, error)
	Categories(ctx context.Context, scope domain.Scope) ([]string, error)
}

// BrandInput carries brand fields; nil pointers are left untouched on update.
type BrandInput struct {
	TraderID    string
	Name        *string
	Description *string
	IsActive    *bool
}

// ItemInput carries item fields; nil pointers are left untouched on update.
type ItemInput struct {
	TraderID       string
	Name           *string
	Category       *string
	BrandID        *string
	UOM            *domain.UOM
	CurrentRate    *decimal.Decimal
	Description    *string
	Specifications *string
	IsActive       *bool
}

// CatalogService manages brands and items.
type CatalogService interface {
	CreateBrand(ctx context.Context, actor domain.Actor, in BrandInput) (*domain.Brand, error)
	GetBrand(ctx context.Context, actor domain.Actor, id string) (*domain.Brand, error)
	UpdateBrand(ctx context.Context, actor domain.Actor, id string, in BrandInput) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, actor domain.Actor, id string) error
	ListBrands(ctx context.Context, actor domain.Actor, filter BrandFilter) (*PageResult[*domain.Brand], error)

	CreateItem(ctx context.Context, actor domain.Actor, in ItemInput) (*domain.Item, error)
	GetItem(ctx context.Context, actor domain.Actor, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, actor domain.Actor, id string, in ItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, actor domain.Actor, id string) error
	ListItems(ctx context.Context, actor domain.Actor, filter ItemFilter) (*PageResult[*domain.Item], error)
	Categories(ctx context.Context, actor domain.Actor) ([]string, error)
}
