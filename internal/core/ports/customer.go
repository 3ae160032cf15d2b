package ports

import (
	"context"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// CustomerFilter narrows directory listings. Scope is always set by the
// service from the caller.
type CustomerFilter struct {
	Scope      domain.Scope
	UserID     string // linked registered account
	Search     string // partial match on name, phone or email
	Tag        string
	ActiveOnly bool
	SortByName bool
	Page       Page
}

// CustomerRepository defines persistence operations for directory customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByPhone(ctx context.Context, scope domain.Scope, phone string) (*domain.Customer, error)
	// PhoneTaken reports whether traderID already has another customer with phone.
	PhoneTaken(ctx context.Context, traderID, phone, excludeID string) (bool, error)
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CustomerFilter) ([]*domain.Customer, int64, error)
}

// CreateCustomerInput carries a new directory entry. TraderID is only read
// for admins creating on behalf of a trader.
type CreateCustomerInput struct {
	TraderID       string
	UserID         string
	Name           string
	Phone          string
	Email          string
	Address        domain.Address
	GSTNumber      string
	ReferredBy     string
	ReferredByType domain.ReferralType
	Tags           []string
	Notes          string
}

// UpdateCustomerInput is a partial update; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name           *string
	Phone          *string
	Email          *string
	Address        *domain.Address
	GSTNumber      *string
	ReferredBy     *string
	ReferredByType *domain.ReferralType
	Tags           []string
	Notes          *string
	IsActive       *bool
}

// BillableOption is one row of the bill-to picker used when drafting an
// estimate.
type BillableOption struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Phone        string           `json:"phone"`
	Email        string           `json:"email"`
	Address      domain.Address   `json:"address"`
	GSTNumber    string           `json:"gstNumber"`
	Tags         []string         `json:"tags"`
	DisplayName  string           `json:"displayName"`
	FullAddress  string           `json:"fullAddress"`
	IsRegistered bool             `json:"isRegistered"`
	CustomerType domain.PartyKind `json:"customerType"`
	CompanyName  string           `json:"companyName,omitempty"`
}

// CustomerService manages the trader customer directory.
type CustomerService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateCustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Customer, error)
	Update(ctx context.Context, actor domain.Actor, id string, in UpdateCustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	List(ctx context.Context, actor domain.Actor, filter CustomerFilter) (*PageResult[*domain.Customer], error)
	FindByPhone(ctx context.Context, actor domain.Actor, phone string) (*domain.Customer, error)
	ForEstimate(ctx context.Context, actor domain.Actor, search string, limit int) ([]BillableOption, error)
}
