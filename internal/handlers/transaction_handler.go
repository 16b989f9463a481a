package handlers

import (
	"context"
	"net/http"
	"time"

	"pettycash/internal/dto"
	"pettycash/internal/errors"
	"pettycash/internal/models"
	"pettycash/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TransactionHandler handles ledger transaction and approval requests
type TransactionHandler struct {
	transactions services.TransactionServiceInterface
	approvals    services.ApprovalServiceInterface
	balance      services.BalanceServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	transactions services.TransactionServiceInterface,
	approvals services.ApprovalServiceInterface,
	balance services.BalanceServiceInterface,
) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		approvals:    approvals,
		balance:      balance,
	}
}

func toExpenditureInput(req dto.ExpenditureRequest) services.CreateExpenditureInput {
	input := services.CreateExpenditureInput{
		ApplicationDate: parseDate(req.ApplicationDate),
		Description:     req.Description,
		TaxRegime:       models.TaxRegime(req.TaxRegime),
		TaxMethod:       models.TaxMethod(req.TaxMethod),
		CategoryID:      parseOptionalUUID(req.CategoryID),
		ERPDocNumber:    req.ERPDocNumber,
		LineItems:       make([]services.LineItemInput, 0, len(req.LineItems)),
	}
	if on := parseDate(req.TransactionDate); on != nil {
		input.TransactionDate = *on
	}
	for _, item := range req.LineItems {
		input.LineItems = append(input.LineItems, services.LineItemInput{
			Name:      item.Name,
			Quantity:  parseAmount(item.Quantity),
			Unit:      item.Unit,
			UnitPrice: parseAmount(item.UnitPrice),
		})
	}
	return input
}

func toIncomeInput(req dto.IncomeRequest) services.CreateIncomeInput {
	input := services.CreateIncomeInput{
		ApplicationDate: parseDate(req.ApplicationDate),
		Description:     req.Description,
		Amount:          parseAmount(req.Amount),
	}
	if on := parseDate(req.TransactionDate); on != nil {
		input.TransactionDate = *on
	}
	return input
}

// GetBalance returns the current balance or the balance as of a date
// @Summary Cash balance
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param as_of query string false "Cutoff date (YYYY-MM-DD), settlements excluded"
// @Success 200 {object} SuccessResponse{data=dto.BalanceResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_004 - Invalid date"
// @Router /balance [get]
func (h *TransactionHandler) GetBalance(c echo.Context) error {
	ctx := c.Request().Context()

	if asOf := c.QueryParam("as_of"); asOf != "" {
		cutoff, err := time.Parse(time.DateOnly, asOf)
		if err != nil {
			return SendError(c, errors.ValidationInvalidDate, errors.WithDetails("as_of: must be YYYY-MM-DD"))
		}
		balance, err := h.balance.BalanceAsOf(ctx, cutoff)
		if err != nil {
			return SendServiceError(c, err)
		}
		return c.JSON(http.StatusOK, SuccessResponse{Data: dto.BalanceResponse{Balance: balance.StringFixed(2), AsOf: asOf}})
	}

	balance, err := h.balance.CurrentBalance(ctx)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.BalanceResponse{Balance: balance.StringFixed(2)}})
}

// ListTransactions returns a filtered page of transactions
// @Summary List transactions
// @Description Newest first by transaction date, then creation time
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param type query string false "Transaction type" Enums(income, expenditure)
// @Param status query string false "Approval status" Enums(draft, pending, approved, rejected)
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param category_id query string false "Category ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} SuccessResponse{data=dto.ListTransactionsResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid filters"
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	var query dto.TransactionListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	offset, limit := pagination(query.Page, query.Limit)
	filters := models.TransactionFilters{
		Type:       models.TransactionType(query.Type),
		Status:     models.ApprovalStatus(query.Status),
		StartDate:  parseDate(query.From),
		EndDate:    parseDate(query.To),
		CategoryID: parseOptionalUUID(query.CategoryID),
		Offset:     offset,
		Limit:      limit,
	}

	transactions, total, err := h.transactions.List(c.Request().Context(), filters)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.ListTransactionsResponse{
			Transactions: dto.NewTransactionResponses(transactions),
			Pagination:   dto.PaginationInfo{Page: offset/limit + 1, Limit: limit, Total: total},
		},
	})
}

// GetTransaction returns one transaction with its line items
// @Summary Transaction detail
// @Tags Ledger
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Failure 404 {object} errors.ErrorResponse "LEDGER_001 - Transaction not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	transaction, err := h.transactions.Get(c.Request().Context(), id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}

// CreateExpenditure records a draft expenditure for the caller
// @Summary Create expenditure
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ExpenditureRequest true "Expenditure"
// @Success 201 {object} SuccessResponse{data=dto.TransactionResponse}
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid fields"
// @Failure 403 {object} errors.ErrorResponse "LEDGER_002 - Period is settled"
// @Router /expenditures [post]
func (h *TransactionHandler) CreateExpenditure(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.ExpenditureRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactions.CreateExpenditure(c.Request().Context(), toExpenditureInput(req), actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewTransactionResponse(transaction),
		Message: "Expenditure created",
	})
}

// EditExpenditure replaces an expenditure's fields and line items
// @Summary Edit expenditure
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body dto.ExpenditureRequest true "Expenditure"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Failure 403 {object} errors.ErrorResponse "LEDGER_002 - Not editable by caller"
// @Router /expenditures/{id} [put]
func (h *TransactionHandler) EditExpenditure(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	var req dto.ExpenditureRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactions.EditExpenditure(c.Request().Context(), id, services.EditExpenditureInput(toExpenditureInput(req)), actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}

// CreateIncome records an approved income
// @Summary Create income
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.IncomeRequest true "Income"
// @Success 201 {object} SuccessResponse{data=dto.TransactionResponse}
// @Failure 403 {object} errors.ErrorResponse "AUTH_005 - Approver role required"
// @Router /incomes [post]
func (h *TransactionHandler) CreateIncome(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.IncomeRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactions.CreateIncome(c.Request().Context(), toIncomeInput(req), actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewTransactionResponse(transaction),
		Message: "Income created",
	})
}

// EditIncome replaces an income's amount, dates and description
// @Summary Edit income
// @Tags Ledger
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body dto.IncomeRequest true "Income"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Router /incomes/{id} [put]
func (h *TransactionHandler) EditIncome(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	var req dto.IncomeRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	transaction, err := h.transactions.EditIncome(c.Request().Context(), id, services.EditIncomeInput(toIncomeInput(req)), actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}

// DeleteTransaction removes a draft
// @Summary Delete draft
// @Tags Ledger
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse "LEDGER_002 - Not a draft"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	if err := h.transactions.Delete(c.Request().Context(), id, actor); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Submit sends a draft or rejected expenditure for approval
// @Summary Submit for approval
// @Tags Approvals
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Router /transactions/{id}/submit [post]
func (h *TransactionHandler) Submit(c echo.Context) error {
	return h.transition(c, h.approvals.Submit)
}

// Approve approves a pending expenditure
// @Summary Approve
// @Tags Approvals
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Router /transactions/{id}/approve [post]
func (h *TransactionHandler) Approve(c echo.Context) error {
	return h.transition(c, h.approvals.Approve)
}

// Reject rejects a pending expenditure with a reason
// @Summary Reject
// @Tags Approvals
// @Security BearerAuth
// @Accept json
// @Param id path string true "Transaction ID"
// @Param request body dto.RejectRequest true "Reason"
// @Success 200 {object} SuccessResponse{data=dto.TransactionResponse}
// @Router /transactions/{id}/reject [post]
func (h *TransactionHandler) Reject(c echo.Context) error {
	var req dto.RejectRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	return h.transition(c, func(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
		return h.approvals.Reject(ctx, id, actor, req.Reason)
	})
}

// ListPending returns the approval queue, oldest application first
// @Summary Pending approvals
// @Tags Approvals
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(20)
// @Success 200 {object} SuccessResponse{data=dto.ListTransactionsResponse}
// @Router /approvals [get]
func (h *TransactionHandler) ListPending(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	offset, limit := pagination(getIntParam(c, "page", 1), getIntParam(c, "limit", defaultPageLimit))
	pending, total, err := h.approvals.ListPending(c.Request().Context(), actor, offset, limit)
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.ListTransactionsResponse{
			Transactions: dto.NewTransactionResponses(pending),
			Pagination:   dto.PaginationInfo{Page: offset/limit + 1, Limit: limit, Total: total},
		},
	})
}

func (h *TransactionHandler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error)) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	transaction, err := fn(c.Request().Context(), id, actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewTransactionResponse(transaction)})
}
