package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxDescriptionLength = 200
	maxItemNameLength    = 100
	maxUnitLength        = 20
	maxERPDocLength      = 100
)

// LineItemInput is one priced row of an expenditure request.
type LineItemInput struct {
	Name      string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
}

// CreateExpenditureInput carries the fields of a new expenditure.
// ApplicationDate defaults to today.
type CreateExpenditureInput struct {
	ApplicationDate *time.Time
	TransactionDate time.Time
	Description     string
	TaxRegime       models.TaxRegime
	TaxMethod       models.TaxMethod
	CategoryID      *uuid.UUID
	ERPDocNumber    string
	LineItems       []LineItemInput
}

// EditExpenditureInput replaces every editable field of an expenditure.
type EditExpenditureInput CreateExpenditureInput

// CreateIncomeInput carries the fields of a new income.
type CreateIncomeInput struct {
	ApplicationDate *time.Time
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
}

// EditIncomeInput replaces every editable field of an income.
type EditIncomeInput CreateIncomeInput

// TransactionService creates, edits, deletes and reads ledger transactions.
type TransactionService struct {
	store   repositories.Store
	balance *BalanceService
	logger  *LedgerLogger
	metrics MetricsRecorderInterface
}

func NewTransactionService(store repositories.Store, balance *BalanceService, logger *LedgerLogger, metrics MetricsRecorderInterface) *TransactionService {
	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &TransactionService{
		store:   store,
		balance: balance,
		logger:  logger,
		metrics: metrics,
	}
}

func today() time.Time {
	return models.DateOnly(time.Now().UTC())
}

func hasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func validateExpenditureInput(ctx context.Context, categories repositories.CategoryRepositoryInterface, input CreateExpenditureInput) error {
	fields := map[string]string{}

	if input.TransactionDate.IsZero() {
		fields["transaction_date"] = "is required"
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		fields["description"] = "is required"
	} else if len(description) > maxDescriptionLength {
		fields["description"] = "must be at most 200 characters"
	}
	if !input.TaxRegime.Valid() {
		fields["tax_regime"] = "must be taxable, zero_tax or tax_exempt"
	}
	if !input.TaxMethod.Valid() {
		fields["tax_method"] = "must be exclusive or inclusive"
	}
	if len(input.ERPDocNumber) > maxERPDocLength {
		fields["erp_document_number"] = "must be at most 100 characters"
	}

	if len(input.LineItems) == 0 {
		fields["line_items"] = "at least one line item is required"
	}
	for i, item := range input.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]."
		name := strings.TrimSpace(item.Name)
		if name == "" {
			fields[prefix+"name"] = "is required"
		} else if len(name) > maxItemNameLength {
			fields[prefix+"name"] = "must be at most 100 characters"
		}
		if len(item.Unit) > maxUnitLength {
			fields[prefix+"unit"] = "must be at most 20 characters"
		}
		if item.Quantity.IsNegative() {
			fields[prefix+"quantity"] = "must not be negative"
		} else if !hasAtMostTwoDecimals(item.Quantity) {
			fields[prefix+"quantity"] = "must have at most two decimal places"
		}
		if item.UnitPrice.IsNegative() {
			fields[prefix+"unit_price"] = "must not be negative"
		} else if !hasAtMostTwoDecimals(item.UnitPrice) {
			fields[prefix+"unit_price"] = "must have at most two decimal places"
		}
	}

	if input.CategoryID != nil {
		if _, err := categories.GetByID(ctx, *input.CategoryID); err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			fields["category_id"] = "unknown category"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateIncomeInput(input CreateIncomeInput) error {
	fields := map[string]string{}

	if input.TransactionDate.IsZero() {
		fields["transaction_date"] = "is required"
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		fields["description"] = "is required"
	} else if len(description) > maxDescriptionLength {
		fields["description"] = "must be at most 200 characters"
	}
	if !input.Amount.IsPositive() {
		fields["amount"] = "must be greater than zero"
	} else if !hasAtMostTwoDecimals(input.Amount) {
		fields["amount"] = "must have at most two decimal places"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// applyExpenditure copies the input onto t and recomputes its amounts.
func applyExpenditure(t *models.Transaction, input CreateExpenditureInput) {
	t.TransactionDate = models.DateOnly(input.TransactionDate)
	if input.ApplicationDate != nil {
		t.ApplicationDate = models.DateOnly(*input.ApplicationDate)
	}
	t.Description = strings.TrimSpace(input.Description)
	t.TaxRegime = input.TaxRegime
	t.TaxMethod = input.TaxMethod
	if t.TaxRegime != models.TaxRegimeTaxable {
		t.TaxMethod = models.TaxMethodNone
	}
	t.CategoryID = input.CategoryID
	t.Category = nil
	t.ERPDocNumber = strings.TrimSpace(input.ERPDocNumber)

	t.LineItems = make([]models.LineItem, 0, len(input.LineItems))
	for _, item := range input.LineItems {
		t.LineItems = append(t.LineItems, models.NewLineItem(strings.TrimSpace(item.Name), item.Quantity, strings.TrimSpace(item.Unit), item.UnitPrice))
	}

	breakdown := ComputeTax(t.BaseAmount(), t.TaxRegime, t.TaxMethod)
	t.ApplyAmounts(breakdown.Subtotal, breakdown.Tax)
}

func applyIncome(t *models.Transaction, input CreateIncomeInput) {
	t.TransactionDate = models.DateOnly(input.TransactionDate)
	if input.ApplicationDate != nil {
		t.ApplicationDate = models.DateOnly(*input.ApplicationDate)
	}
	t.Description = strings.TrimSpace(input.Description)
	t.TaxRegime = models.TaxRegimeTaxExempt
	t.TaxMethod = models.TaxMethodNone
	t.ApplyAmounts(input.Amount, decimal.Zero)
}

// CreateExpenditure records a new Draft expenditure owned by actor.
func (s *TransactionService) CreateExpenditure(ctx context.Context, input CreateExpenditureInput, actor models.Actor) (*models.Transaction, error) {
	if actor == nil {
		return nil, denied("create expenditure", "no actor")
	}

	transaction := &models.Transaction{
		Type:            models.TransactionTypeExpenditure,
		ApplicantID:     actor.ActorID(),
		ApplicationDate: today(),
		Status:          models.StatusDraft,
	}

	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if err := validateExpenditureInput(ctx, tx.Categories(), input); err != nil {
			return err
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), "create expenditure", input.TransactionDate); err != nil {
			return err
		}

		applyExpenditure(transaction, input)
		return tx.Transactions().Create(ctx, transaction)
	})
	if err != nil {
		return nil, storageErr("create expenditure", err)
	}

	s.afterWrite(ctx, "create_expenditure", start, transaction, "created")
	s.logger.LogTransactionCreated(ctx, transaction, actor)
	return transaction, nil
}

// EditExpenditure replaces the header and line items of an expenditure. The
// applicant may edit while Draft or Rejected; an approver may always edit.
func (s *TransactionService) EditExpenditure(ctx context.Context, id uuid.UUID, input EditExpenditureInput, actor models.Actor) (*models.Transaction, error) {
	const action = "edit expenditure"
	if actor == nil {
		return nil, denied(action, "no actor")
	}

	var transaction *models.Transaction
	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		var err error
		transaction, err = tx.Transactions().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !transaction.IsExpenditure() {
			return denied(action, "transaction is not an expenditure")
		}
		if !canEditExpenditure(transaction, actor) {
			s.logger.LogPolicyDenied(ctx, action, id, actor, "status "+string(transaction.Status))
			return denied(action, "only the applicant of a draft or rejected expenditure, or an approver, may edit it")
		}

		if err := validateExpenditureInput(ctx, tx.Categories(), CreateExpenditureInput(input)); err != nil {
			return err
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, transaction.TransactionDate); err != nil {
			return err
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, input.TransactionDate); err != nil {
			return err
		}

		applyExpenditure(transaction, CreateExpenditureInput(input))
		return tx.Transactions().UpdateWithLineItems(ctx, transaction)
	})
	if err != nil {
		return nil, storageErr(action, err)
	}

	s.afterWrite(ctx, "edit_expenditure", start, transaction, "edited")
	s.logger.LogTransactionEdited(ctx, transaction, actor)
	return transaction, nil
}

// CreateIncome records money put into the box. Incomes are approved on creation.
func (s *TransactionService) CreateIncome(ctx context.Context, input CreateIncomeInput, actor models.Actor) (*models.Transaction, error) {
	const action = "create income"
	if actor == nil || !actor.IsApprover() {
		return nil, denied(action, "approver role required")
	}
	if err := validateIncomeInput(input); err != nil {
		return nil, err
	}

	approverID := actor.ActorID()
	approvedAt := time.Now().UTC()
	transaction := &models.Transaction{
		Type:            models.TransactionTypeIncome,
		ApplicantID:     actor.ActorID(),
		ApplicationDate: today(),
		Status:          models.StatusApproved,
		ApproverID:      &approverID,
		ApprovedAt:      &approvedAt,
	}
	applyIncome(transaction, input)

	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, transaction.TransactionDate); err != nil {
			return err
		}
		return tx.Transactions().Create(ctx, transaction)
	})
	if err != nil {
		return nil, storageErr(action, err)
	}

	s.afterWrite(ctx, "create_income", start, transaction, "created")
	s.logger.LogTransactionCreated(ctx, transaction, actor)
	return transaction, nil
}

// EditIncome changes the amount, dates or description of an income.
// Settlement rows cannot be edited.
func (s *TransactionService) EditIncome(ctx context.Context, id uuid.UUID, input EditIncomeInput, actor models.Actor) (*models.Transaction, error) {
	const action = "edit income"
	if actor == nil || !actor.IsApprover() {
		return nil, denied(action, "approver role required")
	}
	if err := validateIncomeInput(CreateIncomeInput(input)); err != nil {
		return nil, err
	}

	var transaction *models.Transaction
	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		var err error
		transaction, err = tx.Transactions().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !transaction.IsIncome() {
			return denied(action, "transaction is not an income")
		}
		if transaction.IsSettlement {
			return denied(action, "carry-forward rows are maintained by settlement")
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, transaction.TransactionDate); err != nil {
			return err
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, input.TransactionDate); err != nil {
			return err
		}

		applyIncome(transaction, CreateIncomeInput(input))
		return tx.Transactions().Update(ctx, transaction)
	})
	if err != nil {
		return nil, storageErr(action, err)
	}

	s.afterWrite(ctx, "edit_income", start, transaction, "edited")
	s.logger.LogTransactionEdited(ctx, transaction, actor)
	return transaction, nil
}

// Delete removes a Draft transaction and its line items.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	const action = "delete"
	if actor == nil {
		return denied(action, "no actor")
	}

	var transaction *models.Transaction
	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		var err error
		transaction, err = tx.Transactions().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if transaction.Status != models.StatusDraft {
			s.logger.LogPolicyDenied(ctx, action, id, actor, "status "+string(transaction.Status))
			return denied(action, "only draft transactions can be deleted")
		}
		if !isApplicantOrApprover(transaction, actor) {
			return denied(action, "only the applicant or an approver may delete")
		}
		if err := ensureOpenPeriod(ctx, tx.Transactions(), action, transaction.TransactionDate); err != nil {
			return err
		}

		return tx.Transactions().Delete(ctx, id)
	})
	if err != nil {
		return storageErr(action, err)
	}

	s.afterWrite(ctx, "delete", start, transaction, "deleted")
	s.logger.LogTransactionDeleted(ctx, id, actor)
	return nil
}

// Get returns a transaction with its line items and category.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.store.Transactions().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get transaction", err)
	}
	return transaction, nil
}

// List returns a page of transactions, newest first, and the total match count.
func (s *TransactionService) List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, 0, newValidationError("type", "must be income or expenditure")
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, newValidationError("status", "must be draft, pending, approved or rejected")
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, 0, newValidationError("to", "must not be before from")
	}

	transactions, total, err := s.store.Transactions().List(ctx, filters)
	if err != nil {
		return nil, 0, storageErr("list transactions", err)
	}
	return transactions, total, nil
}

func (s *TransactionService) afterWrite(ctx context.Context, operation string, start time.Time, t *models.Transaction, event string) {
	s.balance.Invalidate()
	s.metrics.RecordProcessingTime(operation, time.Since(start))
	s.metrics.IncrementCounter(metricTransactionEvent, map[string]string{
		"type":  string(t.Type),
		"event": event,
	})
}

func isApplicantOrApprover(t *models.Transaction, actor models.Actor) bool {
	return actor.IsApprover() || t.ApplicantID == actor.ActorID()
}

func canEditExpenditure(t *models.Transaction, actor models.Actor) bool {
	if actor.IsApprover() {
		return true
	}
	return t.Status.IsEditableByApplicant() && t.ApplicantID == actor.ActorID()
}
