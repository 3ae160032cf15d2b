package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// EstimateFilter narrows estimate listings. Scope restricts by trader; Parties
// restricts to estimates billed to any of the given references.
type EstimateFilter struct {
	Scope    domain.Scope
	Parties  []domain.PartyRef
	ItemID   string
	Search   string // partial match on estimate number
	Status   domain.EstimateStatus
	DateFrom time.Time
	DateTo   time.Time
	Page     Page
}

// EstimateRepository defines persistence operations for estimates.
type EstimateRepository interface {
	// Create fails with domain.ErrDuplicateEstimateNum when the number is taken.
	Create(ctx context.Context, e *domain.Estimate) error
	FindByID(ctx context.Context, id string) (*domain.Estimate, error)
	// Update saves e only while the stored status is still expected and fails
	// with domain.ErrEstimateConflict otherwise.
	Update(ctx context.Context, e *domain.Estimate, expected domain.EstimateStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EstimateFilter) ([]*domain.Estimate, int64, error)
	// MarkViewed moves a sent estimate to viewed. It reports false when the
	// estimate was not in the sent state.
	MarkViewed(ctx context.Context, id string, at time.Time) (bool, error)
}

// EstimateSequence hands out per-trader, per-year estimate numbers.
type EstimateSequence interface {
	Next(ctx context.Context, traderID string, year int) (int64, error)
}

// LineInput is one requested estimate line. Rate is the price the caller
// agreed on and is stored as given.
type LineInput struct {
	ItemID   string
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// CreateEstimateInput carries a new estimate. Status, when set, must be draft.
type CreateEstimateInput struct {
	CustomerID     string
	CustomerKind   domain.PartyKind
	Items          []LineInput
	Discount       decimal.Decimal
	DiscountType   domain.DiscountType
	LoadingCharges decimal.Decimal
	ValidTill      time.Time
	Notes          string
	Status         domain.EstimateStatus
}

// UpdateEstimateInput is a partial update. When Items is non-nil the whole
// estimate is repriced, with omitted adjustments taken from the stored values.
type UpdateEstimateInput struct {
	CustomerID     *string
	CustomerKind   domain.PartyKind
	Items          []LineInput
	Discount       *decimal.Decimal
	DiscountType   *domain.DiscountType
	LoadingCharges *decimal.Decimal
	ValidTill      *time.Time
	Notes          *string
	InvoiceNumber  *string
	Status         *domain.EstimateStatus
}

// EstimateService is the estimate engine.
type EstimateService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateEstimateInput) (*domain.Estimate, error)
	// Get returns an estimate; customers viewing a sent estimate move it to viewed.
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Estimate, error)
	Update(ctx context.Context, actor domain.Actor, id string, in UpdateEstimateInput) (*domain.Estimate, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	List(ctx context.Context, actor domain.Actor, filter EstimateFilter) (*PageResult[*domain.Estimate], error)
	ListMine(ctx context.Context, actor domain.Actor, filter EstimateFilter) (*PageResult[*domain.Estimate], error)
	ListForCustomer(ctx context.Context, actor domain.Actor, customerID string, filter EstimateFilter) ([]*domain.Estimate, error)
	ListByItem(ctx context.Context, actor domain.Actor, itemID string) ([]*domain.Estimate, error)
	MarkSent(ctx context.Context, actor domain.Actor, id string, via []domain.SendChannel) (*domain.Estimate, error)
}
