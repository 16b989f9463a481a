package handlers

import (
	"net/http"
	"time"

	"pettycash/internal/dto"
	"pettycash/internal/errors"
	"pettycash/internal/models"
	"pettycash/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InvoiceHandler serves the purchase invoice register
type InvoiceHandler struct {
	invoices services.InvoiceServiceInterface
}

func NewInvoiceHandler(invoices services.InvoiceServiceInterface) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// RegisterInvoice records a received invoice, optionally linked to an expenditure
// @Summary Register invoice
// @Tags Invoices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.InvoiceRequest true "Invoice"
// @Success 201 {object} SuccessResponse{data=dto.InvoiceResponse}
// @Failure 409 {object} errors.ErrorResponse "INVOICE_002 - Duplicate invoice number"
// @Router /invoices [post]
func (h *InvoiceHandler) RegisterInvoice(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.InvoiceRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	input := services.RegisterInvoiceInput{
		Type:           models.InvoiceType(req.Type),
		Track:          req.Track,
		Number:         req.Number,
		VendorName:     req.VendorName,
		BusinessNumber: req.BusinessNumber,
		SalesAmount:    parseAmount(req.SalesAmount),
		TaxAmount:      parseAmount(req.TaxAmount),
		TransactionID:  parseOptionalUUID(req.TransactionID),
	}
	if d := parseDate(req.InvoiceDate); d != nil {
		input.InvoiceDate = *d
	}

	invoice, err := h.invoices.Register(c.Request().Context(), input, actor)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, SuccessResponse{
		Data:    dto.NewInvoiceResponse(invoice),
		Message: "Invoice registered",
	})
}

// ListInvoices pages through invoices, newest first
// @Summary List invoices
// @Tags Invoices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=dto.ListInvoicesResponse}
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
	var query dto.InvoiceListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	offset, limit := pagination(query.Page, query.Limit)
	invoices, total, err := h.invoices.List(c.Request().Context(), models.InvoiceFilters{
		Type:          models.InvoiceType(query.Type),
		StartDate:     parseDate(query.From),
		EndDate:       parseDate(query.To),
		TransactionID: parseOptionalUUID(query.TransactionID),
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		return SendServiceError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Data: dto.ListInvoicesResponse{
			Invoices:   dto.NewInvoiceResponses(invoices),
			Pagination: dto.PaginationInfo{Page: offset/limit + 1, Limit: limit, Total: total},
		},
	})
}

// GetInvoice returns one invoice
// @Summary Invoice detail
// @Tags Invoices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} SuccessResponse{data=dto.InvoiceResponse}
// @Failure 404 {object} errors.ErrorResponse "INVOICE_001 - Invoice not found"
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	invoice, err := h.invoices.Get(c.Request().Context(), id)
	if err != nil {
		return SendServiceError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewInvoiceResponse(invoice)})
}

// DeleteInvoice removes an invoice; uploader or approver only
// @Summary Delete invoice
// @Tags Invoices
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 204
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "id")
	}

	if err := h.invoices.Delete(c.Request().Context(), id, actor); err != nil {
		return SendServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// InvoiceRegister lists a month's invoices grouped by type. The month
// defaults to the current one.
// @Summary Monthly invoice register
// @Tags Invoices
// @Security BearerAuth
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param year query int false "Year"
// @Param month query int false "Month (1-12)"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {object} SuccessResponse{data=dto.InvoiceRegisterResponse}
// @Router /invoices/report [get]
func (h *InvoiceHandler) InvoiceRegister(c echo.Context) error {
	var query dto.ReportQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("year and month must be integers"))
	}
	now := time.Now()
	if query.Year == 0 {
		query.Year = now.Year()
	}
	if query.Month == 0 {
		query.Month = int(now.Month())
	}
	if err := c.Validate(query); err != nil {
		return err
	}

	register, err := h.invoices.MonthlyRegister(c.Request().Context(), query.Year, query.Month)
	if err != nil {
		return SendServiceError(c, err)
	}

	if query.Format == "xlsx" {
		c.Response().Header().Set(echo.HeaderContentType, services.XLSXContentType)
		c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+register.FileName())
		c.Response().WriteHeader(http.StatusOK)
		return register.WriteXLSX(c.Response())
	}
	return c.JSON(http.StatusOK, SuccessResponse{Data: dto.NewInvoiceRegisterResponse(register)})
}
