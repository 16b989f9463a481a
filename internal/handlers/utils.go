package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pettycash/internal/errors"
	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// keeps (page-1)*limit far from int overflow
	maxPage = 1_000_000
)

// ErrUnauthorized is returned when the request carries no actor
var ErrUnauthorized = fmt.Errorf("unauthorized")

// getActor returns the actor set by the auth middleware
func getActor(c echo.Context) (models.Actor, error) {
	actor, ok := c.Get(ActorContextKey).(models.Actor)
	if !ok || actor == nil {
		return nil, ErrUnauthorized
	}
	return actor, nil
}

func getIntParam(c echo.Context, name string, defaultValue int) int {
	param := c.QueryParam(name)
	if param == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(param)
	if err != nil {
		return defaultValue
	}

	return value
}

// pagination turns page/limit query values into an offset and a clamped limit
func pagination(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return (page - 1) * limit, limit
}

// invalidID rejects a malformed UUID path parameter
func invalidID(c echo.Context, name string) error {
	return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(name+": must be a valid UUID"))
}

// parseDate reads a validated YYYY-MM-DD value; empty yields nil
func parseDate(value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil
	}
	return &t
}

// parseOptionalUUID reads a validated UUID value; empty yields nil
func parseOptionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}

// parseAmount reads a validated decimal string
func parseAmount(value string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return amount
}
