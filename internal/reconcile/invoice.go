package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary is the reconciled financial picture of one invoice.
type Summary struct {
	Lines     []Line
	Subtotal  float64
	TaxAmount float64
	TaxType   string
	Taxes     []TaxLine
	TaxTotal  float64
	Total     float64
}

// ReconcileInvoice reconciles every line, rolls the line subtotals up into
// the invoice subtotal and apportions the invoice tax. The tax total is the
// sum of the apportioned entries, or the extracted tax amount when none were
// emitted.
func ReconcileInvoice(items []LineInput, taxAmount float64, taxType string) Summary {
	s := Summary{
		Lines:   make([]Line, 0, len(items)),
		TaxType: strings.ToUpper(strings.TrimSpace(taxType)),
	}

	subtotal := decimal.Zero
	for _, item := range items {
		line := ReconcileLine(item)
		s.Lines = append(s.Lines, line)
		subtotal = subtotal.Add(decimal.NewFromFloat(line.Subtotal))
	}
	subtotal = subtotal.Round(2)
	tax := dec(taxAmount).Round(2)

	s.Subtotal = subtotal.InexactFloat64()
	s.TaxAmount = tax.InexactFloat64()
	s.Taxes = ApportionTax(s.Subtotal, s.TaxAmount, taxType)

	taxTotal := tax
	if len(s.Taxes) > 0 {
		taxTotal = decimal.Zero
		for _, t := range s.Taxes {
			taxTotal = taxTotal.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	s.TaxTotal = taxTotal.Round(2).InexactFloat64()
	s.Total = subtotal.Add(taxTotal).Round(2).InexactFloat64()
	return s
}
