package services

import (
	"context"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryExpenseRow is one line of the expense-by-category report.
type CategoryExpenseRow struct {
	CategoryID   uuid.UUID
	CategoryName string
	Amount       decimal.Decimal
	Percentage   string
}

// ExpenseReport groups the approved spend of one month by category.
type ExpenseReport struct {
	Year  int
	Month int
	Rows  []CategoryExpenseRow
	Total decimal.Decimal
}

type ReportService struct {
	store repositories.Store
}

func NewReportService(store repositories.Store) *ReportService {
	return &ReportService{store: store}
}

// ExpenseByCategory reports approved, categorized expenditures of the month
// as positive amounts, largest first. Approver only.
func (s *ReportService) ExpenseByCategory(ctx context.Context, year, month int, actor models.Actor) (*ExpenseReport, error) {
	if actor == nil || !actor.IsApprover() {
		return nil, denied("expense report", "approver role required")
	}
	if year < 1900 || year > 9999 {
		return nil, newValidationError("year", "must be between 1900 and 9999")
	}
	if month < 1 || month > 12 {
		return nil, newValidationError("month", "must be between 1 and 12")
	}

	end := models.MonthEnd(year, month)
	start := end.AddDate(0, 0, 1-end.Day())

	totals, err := s.store.Transactions().ExpenditureTotalsByCategory(ctx, start, end)
	if err != nil {
		return nil, storageErr("expense report", err)
	}

	report := &ExpenseReport{
		Year:  year,
		Month: month,
		Rows:  make([]CategoryExpenseRow, 0, len(totals)),
		Total: decimal.Zero,
	}
	for _, t := range totals {
		report.Total = report.Total.Add(t.Total.Neg())
	}
	if report.Total.IsZero() {
		return report, nil
	}

	hundred := decimal.NewFromInt(100)
	for _, t := range totals {
		amount := t.Total.Neg()
		report.Rows = append(report.Rows, CategoryExpenseRow{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Amount:       amount,
			Percentage:   amount.Mul(hundred).Div(report.Total).StringFixed(2) + "%",
		})
	}

	return report, nil
}
