package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"pettycash/internal/errors"
	"pettycash/internal/handlers"
	"pettycash/internal/models"
	"pettycash/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PanicRecovery turns a handler panic into a SYSTEM_001 response. The panic
// is logged through the ledger logger with the request's correlation id and
// acting user, and counted in api_errors_total.
func PanicRecovery(logger *services.LedgerLogger) echo.MiddlewareFunc {
	if logger == nil {
		logger = services.NewLedgerLogger(nil)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				req := c.Request()
				traceID := GetTraceID(c)
				if traceID == "" {
					traceID = services.CorrelationID(req.Context())
				}
				if traceID == "" {
					traceID = "unknown"
				}

				actorID := uuid.Nil
				if actor, ok := c.Get(handlers.ActorContextKey).(models.Actor); ok && actor != nil {
					actorID = actor.ActorID()
				}

				ctx := services.WithCorrelationID(req.Context(), traceID)
				logger.LogPanicRecovered(ctx, req.Method, routeOf(c), actorID, fmt.Sprintf("%v", r), debug.Stack())

				apiErrorsTotal.WithLabelValues(
					string(errors.SystemInternalError),
					routeOf(c),
					strconv.Itoa(http.StatusInternalServerError),
				).Inc()

				// a handler that already wrote its headers keeps them
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, errors.NewErrorResponse(errors.SystemInternalError, traceID))
			}()

			return next(c)
		}
	}
}

// routeOf is the registered route pattern, or the raw path for unrouted requests.
func routeOf(c echo.Context) string {
	if path := c.Path(); path != "" {
		return path
	}
	return c.Request().URL.Path
}
