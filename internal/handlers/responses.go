package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"pettycash/internal/errors"
	"pettycash/internal/services"

	"github.com/labstack/echo/v4"
)

// STANDARDIZED ERROR HANDLING PATTERNS
//
// Handlers report failures through three helpers:
//
// 1. SendError - client errors with a known code (4xx responses)
//    SendError(c, errors.ValidationGeneral, errors.WithDetails("..."))
//
// 2. SendServiceError - any error returned by a ledger service. The error
//    kind picks the code; storage failures never leak their text.
//
// 3. SendSystemError - unexpected internal errors (500 responses)
//
// Request body validation errors are returned as-is and rendered by the
// custom HTTP error handler.

const (
	// TraceIDContextKey is the context key for storing the trace ID
	TraceIDContextKey = "trace_id"
	// ActorContextKey holds the models.Actor resolved from the access token
	ActorContextKey = "actor"
	// AccessTokenContextKey holds the raw bearer token of an authenticated request
	AccessTokenContextKey = "access_token"
)

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse is an alias for the standardized error response type
type ErrorResponse = errors.ErrorResponse

// getTraceID extracts the trace ID from the Echo context
func getTraceID(c echo.Context) string {
	traceID, ok := c.Get(TraceIDContextKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// SendError sends a standardized error response with trace ID from context
func SendError(c echo.Context, code errors.ErrorCode, opts ...errors.ErrorOption) error {
	traceID := getTraceID(c)
	errorResponse := errors.NewErrorResponse(code, traceID, opts...)
	return c.JSON(errorResponse.GetHTTPStatus(), errorResponse)
}

// SendSystemError wraps a system error with generic message and logs the internal error
func SendSystemError(c echo.Context, err error) error {
	traceID := getTraceID(c)
	errorResponse, internal := errors.WrapSystemError(err, traceID)
	slog.ErrorContext(c.Request().Context(), "internal error",
		"trace_id", traceID,
		"path", c.Request().URL.Path,
		"error", internal)
	return c.JSON(http.StatusInternalServerError, errorResponse)
}

// SendServiceError maps a ledger service error to its API code.
func SendServiceError(c echo.Context, err error) error {
	var (
		validationErr *services.ValidationError
		policyErr     *services.PolicyError
		negativeErr   *services.NegativeBalanceError
	)

	switch {
	case stderrors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, errors.NewValidationError(validationErr.Fields, getTraceID(c)))
	case stderrors.As(err, &policyErr):
		return SendError(c, errors.LedgerPolicyViolation, errors.WithDetails(policyErr.Error()))
	case stderrors.As(err, &negativeErr):
		return SendError(c, errors.SettlementNegativeBalance, errors.WithDetails("balance: "+negativeErr.Balance.StringFixed(2)))
	case stderrors.Is(err, services.ErrDuplicateSettlement):
		return SendError(c, errors.SettlementDuplicate)
	case stderrors.Is(err, services.ErrReferentialConflict):
		return SendError(c, errors.CategoryConflict, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrUserAlreadyExists):
		return SendError(c, errors.LedgerUserAlreadyExists)
	case stderrors.Is(err, services.ErrTransactionNotFound):
		return SendError(c, errors.LedgerTransactionNotFound)
	case stderrors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, errors.CategoryNotFound)
	case stderrors.Is(err, services.ErrCashCountNotFound):
		return SendError(c, errors.CashCountNotFound)
	case stderrors.Is(err, services.ErrInvoiceNotFound):
		return SendError(c, errors.InvoiceNotFound)
	case stderrors.Is(err, services.ErrDuplicateInvoice):
		return SendError(c, errors.InvoiceDuplicate, errors.WithDetails(err.Error()))
	case stderrors.Is(err, services.ErrUserNotFound):
		return SendError(c, errors.LedgerUserNotFound)
	case stderrors.Is(err, services.ErrNotFound):
		return SendError(c, errors.SystemRouteNotFound)
	case stderrors.Is(err, services.ErrStorage):
		traceID := getTraceID(c)
		errorResponse, internal := errors.WrapDatabaseError(err, traceID)
		slog.ErrorContext(c.Request().Context(), "storage failure",
			"trace_id", traceID,
			"path", c.Request().URL.Path,
			"error", internal)
		return c.JSON(http.StatusInternalServerError, errorResponse)
	default:
		return SendSystemError(c, err)
	}
}
