package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"pettycash/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrPolicyViolation     = errors.New("policy violation")
	ErrDuplicateSettlement = errors.New("settlement already exists for this period")
	ErrNegativeBalance     = errors.New("month-end balance is negative")
	ErrReferentialConflict = errors.New("referential conflict")
	ErrStorage             = errors.New("storage failure")

	ErrNotFound            = repositories.ErrNotFound
	ErrTransactionNotFound = repositories.ErrTransactionNotFound
	ErrCategoryNotFound    = repositories.ErrCategoryNotFound
	ErrCashCountNotFound   = repositories.ErrCashCountNotFound
	ErrUserNotFound        = repositories.ErrUserNotFound
)

// ValidationError lists offending input fields and what is wrong with each.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PolicyError is returned when the actor or the record state forbids an operation.
type PolicyError struct {
	Action string
	Reason string
}

func denied(action, reason string) *PolicyError {
	return &PolicyError{Action: action, Reason: reason}
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s not permitted: %s", e.Action, e.Reason)
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrPolicyViolation
}

// NegativeBalanceError carries the balance that blocked a settlement.
type NegativeBalanceError struct {
	Balance decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("month-end balance %s is negative", e.Balance.StringFixed(2))
}

func (e *NegativeBalanceError) Is(target error) bool {
	return target == ErrNegativeBalance
}

// StorageError wraps a persistence failure that has no domain meaning.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// storageErr passes domain errors through and wraps everything else.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPolicyViolation) ||
		errors.Is(err, ErrDuplicateSettlement) ||
		errors.Is(err, ErrNegativeBalance) ||
		errors.Is(err, ErrReferentialConflict) ||
		errors.Is(err, ErrDuplicateInvoice) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStorage)
}
