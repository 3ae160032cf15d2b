package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EstimateStatus represents the lifecycle state of an estimate.
type EstimateStatus string

const (
	EstimateDraft     EstimateStatus = "draft"
	EstimateSent      EstimateStatus = "sent"
	EstimateViewed    EstimateStatus = "viewed"
	EstimateConverted EstimateStatus = "converted"
	EstimateExpired   EstimateStatus = "expired"
)

// validTransitions defines the allowed lifecycle moves. Converted and expired
// have no outgoing edges.
var validTransitions = map[EstimateStatus][]EstimateStatus{
	EstimateDraft:  {EstimateSent, EstimateExpired},
	EstimateSent:   {EstimateSent, EstimateViewed, EstimateExpired},
	EstimateViewed: {EstimateConverted, EstimateExpired},
}

// Valid reports whether s is a known status.
func (s EstimateStatus) Valid() bool {
	switch s {
	case EstimateDraft, EstimateSent, EstimateViewed, EstimateConverted, EstimateExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s EstimateStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s EstimateStatus) CanTransitionTo(next EstimateStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SendChannel is a medium an estimate was delivered through.
type SendChannel string

const (
	SendEmail    SendChannel = "email"
	SendWhatsApp SendChannel = "whatsapp"
	SendPrint    SendChannel = "print"
)

// Valid reports whether c is a known channel.
func (c SendChannel) Valid() bool {
	return c == SendEmail || c == SendWhatsApp || c == SendPrint
}

// LineItem is one priced row of an estimate. Name and UOM are copied from the
// catalog item so later catalog edits do not rewrite history.
type LineItem struct {
	ItemID   string          `json:"item" bson:"item"`
	Name     string          `json:"name" bson:"name"`
	UOM      UOM             `json:"uom" bson:"uom"`
	Quantity decimal.Decimal `json:"quantity" bson:"quantity"`
	Rate     decimal.Decimal `json:"rate" bson:"rate"`
	Total    decimal.Decimal `json:"total" bson:"total"`
}

// Estimate is the priced quote aggregate.
type Estimate struct {
	ID             string          `json:"id" bson:"_id"`
	EstimateNumber string          `json:"estimateNumber" bson:"estimateNumber"`
	TraderID       string          `json:"traderId" bson:"traderId"`
	Customer       PartyRef        `json:"customerRef" bson:"customerRef"`
	Party          *PartySummary   `json:"customer,omitempty" bson:"customer,omitempty"`
	Items          []LineItem      `json:"items" bson:"items"`
	Subtotal       decimal.Decimal `json:"subtotal" bson:"subtotal"`
	Discount       decimal.Decimal `json:"discount" bson:"discount"`
	DiscountType   DiscountType    `json:"discountType" bson:"discountType"`
	DiscountAmount decimal.Decimal `json:"discountAmount" bson:"discountAmount"`
	LoadingCharges decimal.Decimal `json:"loadingCharges" bson:"loadingCharges"`
	Total          decimal.Decimal `json:"total" bson:"total"`
	ValidTill      time.Time       `json:"validTill" bson:"validTill"`
	Status         EstimateStatus  `json:"status" bson:"status"`
	InvoiceNumber  string          `json:"invoiceNumber,omitempty" bson:"invoiceNumber,omitempty"`
	IsConverted    bool            `json:"isConverted" bson:"isConverted"`
	Notes          string          `json:"notes,omitempty" bson:"notes,omitempty"`
	SentVia        []SendChannel   `json:"sentVia" bson:"sentVia"`
	SentAt         *time.Time      `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	ViewedAt       *time.Time      `json:"viewedAt,omitempty" bson:"viewedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Adjustments returns the estimate-level pricing modifiers.
func (e *Estimate) Adjustments() Adjustments {
	return Adjustments{
		Discount:       e.Discount,
		DiscountType:   e.DiscountType,
		LoadingCharges: e.LoadingCharges,
	}
}

// Reprice recomputes every line total and the estimate totals from scratch.
func (e *Estimate) Reprice() {
	t := Price(e.Items, e.Adjustments())
	e.Subtotal = t.Subtotal
	e.DiscountAmount = t.DiscountAmount
	e.Total = t.Total
}

// CheckEditable rejects pricing edits once the estimate is closed.
func (e *Estimate) CheckEditable() error {
	if e.Status.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrEstimateLocked, e.Status)
	}
	return nil
}

// TransitionTo moves the estimate to next, stamping the timestamps that go
// with it. IsConverted follows the converted status.
func (e *Estimate) TransitionTo(next EstimateStatus, now time.Time) error {
	if !next.Valid() {
		return NewValidationError("status", "Invalid status")
	}
	if !e.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, next)
	}
	e.Status = next
	switch next {
	case EstimateSent:
		e.SentAt = &now
	case EstimateViewed:
		e.ViewedAt = &now
	case EstimateConverted:
		e.IsConverted = true
	}
	e.UpdatedAt = now
	return nil
}

// FormatEstimateNumber renders a sequence value as EST-{year}-{nnnn}.
func FormatEstimateNumber(year int, seq int64) string {
	return fmt.Sprintf("EST-%d-%04d", year, seq)
}

// FallbackEstimateNumber derives a number from the clock when the sequence is
// unavailable: EST-{year}-{last six digits of epoch millis}.
func FallbackEstimateNumber(now time.Time) string {
	return fmt.Sprintf("EST-%d-%06d", now.Year(), now.UnixMilli()%1_000_000)
}
