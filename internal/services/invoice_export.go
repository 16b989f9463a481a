package services

import (
	"fmt"
	"io"

	"pettycash/internal/models"

	"github.com/xuri/excelize/v2"
)

func (r *InvoiceRegister) FileName() string {
	return fmt.Sprintf("invoice_register_%s.xlsx", models.SettlementPeriodKey(r.Year, r.Month))
}

// WriteXLSX renders the register on one sheet: each type's invoices followed
// by a subtotal row, then a grand total row.
func (r *InvoiceRegister) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := models.SettlementPeriodKey(r.Year, r.Month)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}

	headers := []interface{}{"Type", "Number", "Date", "Vendor", "Business number", "Sales", "Tax", "Total"}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	row := 2
	for _, group := range r.Groups {
		for _, invoice := range group.Invoices {
			values := []interface{}{
				invoice.Type.Label(),
				invoice.FullNumber(),
				invoice.InvoiceDate.Format("2006-01-02"),
				invoice.VendorName,
				invoice.BusinessNumber,
				invoice.SalesAmount.InexactFloat64(),
				invoice.TaxAmount.InexactFloat64(),
				invoice.TotalAmount.InexactFloat64(),
			}
			if err := setRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
		subtotal := []interface{}{group.Type.Label() + " subtotal", "", "", "", "",
			group.Sales.InexactFloat64(), group.Tax.InexactFloat64(), group.Total.InexactFloat64()}
		if err := setRow(f, sheet, row, subtotal); err != nil {
			return err
		}
		row++
	}

	total := []interface{}{"Total", "", "", "", "", r.Sales.InexactFloat64(), r.Tax.InexactFloat64(), r.Total.InexactFloat64()}
	if err := setRow(f, sheet, row, total); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "F2", fmt.Sprintf("H%d", row), style); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
