package dto

import (
	"time"

	"pettycash/internal/models"
	"pettycash/internal/services"
)

// SettleRequest names the month to carry forward.
type SettleRequest struct {
	Year  int `json:"year" validate:"required,min=1900,max=9999"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

// CashCountRequest maps face values (as JSON object keys) to counts.
type CashCountRequest struct {
	Counts map[int]int `json:"counts" validate:"required,min=1"`
}

// CashCountLine is the count of one face value.
type CashCountLine struct {
	Denomination int    `json:"denomination"`
	Count        int    `json:"count"`
	Subtotal     string `json:"subtotal"`
}

// CashCountResponse represents a cash count session.
type CashCountResponse struct {
	ID            string          `json:"id"`
	CountedAt     time.Time       `json:"countedAt"`
	CountedTotal  string          `json:"countedTotal"`
	SystemBalance string          `json:"systemBalance"`
	Difference    string          `json:"difference"`
	Balanced      bool            `json:"balanced"`
	OperatorID    string          `json:"operatorId"`
	Lines         []CashCountLine `json:"lines,omitempty"`
}

// CategoryRequest creates a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CategoryResponse represents an expense category.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReportQuery selects the report month.
type ReportQuery struct {
	Year   int    `query:"year" validate:"required,min=1900,max=9999"`
	Month  int    `query:"month" validate:"required,min=1,max=12"`
	Format string `query:"format" validate:"omitempty,oneof=json xlsx"`
}

// CategoryExpenseResponse is one report row.
type CategoryExpenseResponse struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Amount       string `json:"amount"`
	Percentage   string `json:"percentage"`
}

// ExpenseReportResponse is the expense-by-category report.
type ExpenseReportResponse struct {
	Period string                    `json:"period"`
	Total  string                    `json:"total"`
	Rows   []CategoryExpenseResponse `json:"rows"`
}

func NewCashCountResponse(s *models.CashCountSession) CashCountResponse {
	resp := CashCountResponse{
		ID:            s.ID.String(),
		CountedAt:     s.CountedAt,
		CountedTotal:  s.CountedTotal.StringFixed(2),
		SystemBalance: s.SystemBalance.StringFixed(2),
		Difference:    s.Difference.StringFixed(2),
		Balanced:      s.IsBalanced(),
		OperatorID:    s.OperatorID.String(),
	}
	for _, d := range s.Denominations {
		resp.Lines = append(resp.Lines, CashCountLine{
			Denomination: d.Denomination,
			Count:        d.Count,
			Subtotal:     d.Subtotal.StringFixed(2),
		})
	}
	return resp
}

func NewCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID.String(), Name: c.Name}
}

func NewExpenseReportResponse(r *services.ExpenseReport) ExpenseReportResponse {
	resp := ExpenseReportResponse{
		Period: models.SettlementPeriodKey(r.Year, r.Month),
		Total:  r.Total.StringFixed(2),
		Rows:   make([]CategoryExpenseResponse, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, CategoryExpenseResponse{
			CategoryID:   row.CategoryID.String(),
			CategoryName: row.CategoryName,
			Amount:       row.Amount.StringFixed(2),
			Percentage:   row.Percentage,
		})
	}
	return resp
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}
