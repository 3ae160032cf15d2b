package domain

import "github.com/shopspring/decimal"

// DiscountType selects how Estimate.Discount is applied to the subtotal.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "amount"
)

// Valid reports whether d is a known discount type.
func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFlat
}

// Adjustments are the estimate-level modifiers applied after the subtotal.
type Adjustments struct {
	Discount       decimal.Decimal
	DiscountType   DiscountType
	LoadingCharges decimal.Decimal
}

// Totals is the priced result of a set of lines and adjustments.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// LineTotal is quantity times rate, exact.
func LineTotal(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate)
}

// DiscountAmount resolves a discount against a subtotal. Percentage discounts
// are not capped at 100 and flat discounts are not capped at the subtotal.
func DiscountAmount(subtotal, discount decimal.Decimal, kind DiscountType) decimal.Decimal {
	if kind == DiscountPercentage {
		return subtotal.Mul(discount).Shift(-2)
	}
	return discount
}

// Price fills every line total and returns the estimate totals. The result
// may be negative when the discount exceeds subtotal plus loading charges.
func Price(lines []LineItem, adj Adjustments) Totals {
	subtotal := decimal.Zero
	for i := range lines {
		lines[i].Total = LineTotal(lines[i].Quantity, lines[i].Rate)
		subtotal = subtotal.Add(lines[i].Total)
	}
	discount := DiscountAmount(subtotal, adj.Discount, adj.DiscountType)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount).Add(adj.LoadingCharges),
	}
}

// Round2 rounds a monetary amount for display. Stored totals stay exact.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
