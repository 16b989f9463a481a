package services

import (
	"fmt"
	"io"

	"pettycash/internal/models"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName is the suggested download name of the report.
func (r *ExpenseReport) FileName() string {
	return fmt.Sprintf("expense_by_category_%s.xlsx", models.SettlementPeriodKey(r.Year, r.Month))
}

// WriteXLSX renders the report as a one-sheet workbook: a header row, one
// row per category and a closing total row.
func (r *ExpenseReport) WriteXLSX(w io.Writer) error {
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

	headers := []string{"Category", "Amount", "Share"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	row := 2
	for _, line := range r.Rows {
		amount, _ := line.Amount.Float64()
		values := []interface{}{line.CategoryName, amount, line.Percentage}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	total, _ := r.Total.Float64()
	if err := setRow(f, sheet, row, []interface{}{"Total", total, ""}); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B2", fmt.Sprintf("B%d", row), style); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
