package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Estimated component rates used to split a combined GST/PST figure.
var (
	gstRate = decimal.NewFromFloat(0.05)
	pstRate = decimal.NewFromFloat(0.07)
)

// GenericTaxLabel labels tax lines when the invoice carried no tax type.
const GenericTaxLabel = "Tax"

// TaxLine is one labelled component of an invoice's tax.
type TaxLine struct {
	TaxType string  `json:"tax_type"`
	Amount  float64 `json:"amount"`
}

// ApportionTax splits a combined tax amount into labelled components.
//
// A label naming both GST and PST is split as 5% of the subtotal for GST and
// the remainder for PST, falling back to 7% of the subtotal when the
// remainder would be negative. The split is an estimate and need not add up
// to taxAmount. Any other label yields a single entry carrying the full
// amount, labelled GST, PST, the upper-cased label, or "Tax" when there is no
// label. Entries that are not positive are omitted.
func ApportionTax(subtotal, taxAmount float64, taxType string) []TaxLine {
	tax := dec(taxAmount).Round(2)
	if !tax.IsPositive() {
		return nil
	}
	sub := dec(subtotal)
	label := strings.ToUpper(strings.TrimSpace(taxType))
	hasGST := strings.Contains(label, "GST")
	hasPST := strings.Contains(label, "PST")

	var lines []TaxLine
	add := func(kind string, amount decimal.Decimal) {
		if amount.IsPositive() {
			lines = append(lines, TaxLine{TaxType: kind, Amount: amount.InexactFloat64()})
		}
	}

	switch {
	case hasGST && hasPST:
		gst := capToSubtotal(sub.Mul(gstRate).Round(2), sub)
		pst := tax.Sub(gst)
		if pst.IsNegative() {
			pst = sub.Mul(pstRate)
		}
		add("GST", gst)
		add("PST", capToSubtotal(pst.Round(2), sub))
	case hasGST:
		add("GST", tax)
	case hasPST:
		add("PST", tax)
	case label != "":
		add(label, tax)
	default:
		add(GenericTaxLabel, tax)
	}
	return lines
}

// capToSubtotal keeps an estimated component within [0, subtotal]. A
// non-positive subtotal gives no usable upper bound and only the floor applies.
func capToSubtotal(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if subtotal.IsPositive() && amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}
