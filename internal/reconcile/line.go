// Package reconcile turns OCR-extracted line items and tax totals into the
// self-consistent figures the accounting system accepts.
//
// OCR output is unreliable, so nothing here returns an error: every input is
// coerced to a finite number with a documented fallback.
package reconcile

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	cent    = decimal.New(1, -2)
	hundred = decimal.NewFromInt(100)
)

// LineInput holds the raw numeric fields of one extracted line item.
type LineInput struct {
	Quantity  float64
	UnitPrice float64
	Amount    float64
	Tax       float64
}

// Line is a reconciled line item. Subtotal is the line amount after discount.
type Line struct {
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func dec(f float64) decimal.Decimal {
	if !finite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Round2 rounds to cents, halves away from zero. Non-finite input gives 0.
func Round2(f float64) float64 {
	return dec(f).Round(2).InexactFloat64()
}

// ReconcileLine derives quantity, unit price, discount and subtotal so that
// unit price x quantity x (1 - discount/100) lands within one cent of the
// returned subtotal.
//
// A missing or non-positive quantity becomes 1. A missing unit price is
// derived from the amount. When the gross (unit price x quantity) disagrees
// with the extracted amount by a cent or more, the gap is expressed as a
// discount clamped to [0, 100]. The extracted amount is kept as the subtotal
// when the discounted gross reproduces it within a cent; otherwise the
// discounted gross wins.
func ReconcileLine(in LineInput) Line {
	qty := decimal.NewFromInt(1)
	if finite(in.Quantity) && in.Quantity > 0 {
		qty = decimal.NewFromFloat(in.Quantity)
	}

	rawAmount := dec(in.Amount)

	derived := rawAmount.Div(qty)
	if finite(in.UnitPrice) && in.UnitPrice > 0 {
		derived = decimal.NewFromFloat(in.UnitPrice)
	}
	unitPrice := derived.Round(2)

	gross := unitPrice.Mul(qty).Round(2)
	desired := rawAmount.Round(2)

	discount := decimal.Zero
	if gross.IsPositive() && gross.Sub(desired).Abs().GreaterThanOrEqual(cent) {
		discount = decimal.NewFromInt(1).Sub(desired.Div(gross)).Mul(hundred)
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		if discount.GreaterThan(hundred) {
			discount = hundred
		}
		discount = discount.Round(2)
	}

	keep := decimal.NewFromInt(1).Sub(discount.Div(hundred))
	adjusted := gross.Mul(keep).Round(2)

	// Compare against the unrounded discounted gross so the returned figures
	// always satisfy the one-cent contract.
	subtotal := adjusted
	if unitPrice.Mul(qty).Mul(keep).Sub(desired).Abs().LessThanOrEqual(cent) {
		subtotal = desired
	}

	return Line{
		Quantity:  qty.InexactFloat64(),
		UnitPrice: unitPrice.InexactFloat64(),
		Discount:  discount.InexactFloat64(),
		Subtotal:  subtotal.InexactFloat64(),
		Tax:       Round2(in.Tax),
	}
}
