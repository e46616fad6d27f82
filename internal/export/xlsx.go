package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

const (
	invoicesSheet = "Invoices"
	linesSheet    = "Line Items"
)

var lineColumns = []string{"Invoice Number", "Position", "Part Number", "Description", "Quantity", "Unit Price", "Amount", "Tax"}

// moneyColumns are the 1-based invoice columns written as numbers.
var moneyColumns = map[int]bool{10: true, 12: true, 13: true}

// WriteXLSX writes a workbook with an invoice sheet and a line item sheet.
func WriteXLSX(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return fmt.Errorf("creating line sheet: %w", err)
	}

	if err := writeRow(f, invoicesSheet, 1, toCells(columns)); err != nil {
		return err
	}
	if err := writeRow(f, linesSheet, 1, toCells(lineColumns)); err != nil {
		return err
	}

	lineRow := 2
	for i := range invoices {
		inv := &invoices[i]
		row := toCells(invoiceToRow(inv))
		for col := range row {
			if moneyColumns[col+1] {
				row[col] = moneyValue(inv, col+1)
			}
		}
		if err := writeRow(f, invoicesSheet, i+2, row); err != nil {
			return err
		}
		for pos, li := range inv.LineItems {
			cells := []interface{}{inv.InvoiceNumber, pos + 1, li.PartNumber, li.Description, li.Quantity, li.UnitPrice, li.Amount, li.Tax}
			if err := writeRow(f, linesSheet, lineRow, cells); err != nil {
				return err
			}
			lineRow++
		}
	}

	if err := f.SetPanes(invoicesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func moneyValue(inv *domain.Invoice, col int) interface{} {
	switch col {
	case 10:
		return inv.Subtotal
	case 12:
		return inv.TaxAmount
	default:
		return inv.Total
	}
}
