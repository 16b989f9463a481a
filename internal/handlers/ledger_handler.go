package handlers

import (
	"net/http"

	"pettycash/internal/dto"
	"pettycash/internal/errors"
	"pettycash/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LedgerHandler serves month-end settlement, cash counts, categories and reports
type LedgerHandler struct {
	settlements services.SettlementServiceInterface
	cashCounts  services.CashCountServiceInterface
	categories  services.CategoryServiceInterface
	reports     services.ReportServiceInterface
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	settlements services.SettlementServiceInterface,
	cashCounts services.CashCountServiceInterface,
	categories services.CategoryServiceInterface,
	reports services.ReportServiceInterface,
) *LedgerHandler {
	return &LedgerHandler{
		settlements: settlements,
		cashCounts:  cashCounts,
		categories:  categories,
		reports:     reports,
	}
}

// Settle carries the month-end balance forward into the next month
// @Summary Month-end settlement
// @Tags Settlements
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SettleRequest true "Month to settle"
// @Success 201 {object} SuccessResponse{data=dto.TransactionResponse}
// @Failure 403 {object} errors.ErrorResponse "LEDGER_002 - Approver role required"
// @Failure 409 {object} errors.ErrorResponse "SETTLEMENT_001 - Already settled"
// @Failure 422 {object} errors.ErrorResponse "SETTLEMENT_002 - Negative balance"
// @Router /settlements [post]
func (h *LedgerHandler) Settle(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.SettleRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	settlement, err := h.settlements.Settle(c.Request().Context(), req.Year, req.Month, actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewTransactionResponse(settlement),
		Message: "Period settled",
	})
}

// SettlementHistory lists settlement rows, newest first
// @Summary Settlement history
// @Tags Settlements
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]dto.TransactionResponse}
// @Router /settlements [get]
func (h *LedgerHandler) SettlementHistory(c echo.Context) error {
	history, err := h.settlements.History(c.Request().Context())
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponses(history)})
}

// RecordCashCount stores a physical count against the current balance
// @Summary Record cash count
// @Tags Cash Counts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CashCountRequest true "Counts per denomination"
// @Success 201 {object} SuccessResponse{data=dto.CashCountResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Bad denomination or count"
// @Router /cash-counts [post]
func (h *LedgerHandler) RecordCashCount(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CashCountRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	session, err := h.cashCounts.Record(c.Request().Context(), req.Counts, actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Data: dto.NewCashCountResponse(session)})
}

// ListCashCounts returns a page of cash count sessions, newest first
// @Summary List cash counts
// @Tags Cash Counts
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} SuccessResponse{data=[]dto.CashCountResponse}
// @Router /cash-counts [get]
func (h *LedgerHandler) ListCashCounts(c echo.Context) error {
	offset, limit := pagination(getIntParam(c, "page", 1), getIntParam(c, "limit", defaultPageLimit))

	sessions, total, err := h.cashCounts.List(c.Request().Context(), offset, limit)
	if err != nil {
		return SendServiceError(c, err)
	}

	out := make([]dto.CashCountResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, dto.NewCashCountResponse(&sessions[i]))
	}
	return c.JSON(http.StatusOK, SuccessResponse{
		Data: out,
		Meta: dto.PaginationInfo{Page: offset/limit + 1, Limit: limit, Total: total},
	})
}

// GetCashCount returns one session with its denomination lines
// @Summary Cash count detail
// @Tags Cash Counts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=dto.CashCountResponse}
// @Failure 404 {object} errors.ErrorResponse "CASHCOUNT_001 - Not found"
// @Router /cash-counts/{id} [get]
func (h *LedgerHandler) GetCashCount(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	session, err := h.cashCounts.Get(c.Request().Context(), id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewCashCountResponse(session)})
}

// DeleteCashCount removes a session
// @Summary Delete cash count
// @Tags Cash Counts
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Router /cash-counts/{id} [delete]
func (h *LedgerHandler) DeleteCashCount(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	if err := h.cashCounts.Delete(c.Request().Context(), id, actor); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListDenominations returns the face values a count may use
// @Summary Denominations
// @Tags Cash Counts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]int}
// @Router /cash-counts/denominations [get]
func (h *LedgerHandler) ListDenominations(c echo.Context) error {
	return c.JSON(http.StatusOK, SuccessResponse{Data: h.cashCounts.Denominations()})
}

// ListCategories returns all categories ordered by name
// @Summary List categories
// @Tags Categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]dto.CategoryResponse}
// @Router /categories [get]
func (h *LedgerHandler) ListCategories(c echo.Context) error {
	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return SendServiceError(c, err)
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: out})
}

// CreateCategory adds an expense category
// @Summary Create category
// @Tags Categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CategoryRequest true "Category"
// @Success 201 {object} SuccessResponse{data=dto.CategoryResponse}
// @Failure 409 {object} errors.ErrorResponse "CATEGORY_002 - Name taken"
// @Router /categories [post]
func (h *LedgerHandler) CreateCategory(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	category, err := h.categories.Create(c.Request().Context(), req.Name, actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{Data: dto.NewCategoryResponse(category)})
}

// DeleteCategory removes an unused category
// @Summary Delete category
// @Tags Categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 409 {object} errors.ErrorResponse "CATEGORY_002 - Category in use"
// @Router /categories/{id} [delete]
func (h *LedgerHandler) DeleteCategory(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	if err := h.categories.Delete(c.Request().Context(), id, actor); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExpenseReport groups a month's approved spend by category
// @Summary Expense by category
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {object} SuccessResponse{data=dto.ExpenseReportResponse}
// @Router /reports/expense-by-category [get]
func (h *LedgerHandler) ExpenseReport(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var query dto.ReportQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("year and month must be integers"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	report, err := h.reports.ExpenseByCategory(c.Request().Context(), query.Year, query.Month, actor)
	if err != nil {
		return SendServiceError(c, err)
	}

	if query.Format == "xlsx" {
		c.Response().Header().Set(echo.HeaderContentType, services.XLSXContentType)
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+report.FileName())
		c.Response().WriteHeader(http.StatusOK)
		return report.WriteXLSX(c.Response())
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewExpenseReportResponse(report)})
}
