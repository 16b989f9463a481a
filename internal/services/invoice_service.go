package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound  = repositories.ErrInvoiceNotFound
	ErrDuplicateInvoice = errors.New("invoice number already registered")
)

var (
	trackRegex          = regexp.MustCompile(`^[A-Z]{1,10}$`)
	invoiceNumberRegex  = regexp.MustCompile(`^[0-9]{1,20}$`)
	businessNumberRegex = regexp.MustCompile(`^[0-9]{1,20}$`)
)

// RegisterInvoiceInput carries a received invoice as keyed in by its holder.
type RegisterInvoiceInput struct {
	Type           models.InvoiceType
	Track          string
	Number         string
	InvoiceDate    time.Time
	VendorName     string
	BusinessNumber string
	SalesAmount    decimal.Decimal
	TaxAmount      decimal.Decimal
	TransactionID  *uuid.UUID
}

// InvoiceGroup is one invoice type on the monthly register with its subtotals.
type InvoiceGroup struct {
	Type     models.InvoiceType
	Invoices []models.Invoice
	Sales    decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// InvoiceRegister lists a month's invoices grouped by type.
type InvoiceRegister struct {
	Year   int
	Month  int
	Groups []InvoiceGroup
	Count  int
	Sales  decimal.Decimal
	Tax    decimal.Decimal
	Total  decimal.Decimal
}

// InvoiceService keeps the register of purchase invoices backing expenditures.
type InvoiceService struct {
	store   repositories.Store
	logger  *LedgerLogger
	metrics MetricsRecorderInterface
}

func NewInvoiceService(store repositories.Store, logger *LedgerLogger, metrics MetricsRecorderInterface) *InvoiceService {
	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &InvoiceService{store: store, logger: logger, metrics: metrics}
}

// Register records an invoice uploaded by actor. A linked transaction must be
// an expenditure; carry-forward rows and incomes take no invoice.
func (s *InvoiceService) Register(ctx context.Context, input RegisterInvoiceInput, actor models.Actor) (*models.Invoice, error) {
	if actor == nil {
		return nil, denied("register invoice", "no actor")
	}
	if err := validateInvoice(&input); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		Type:           input.Type,
		Track:          input.Track,
		Number:         input.Number,
		InvoiceDate:    models.DateOnly(input.InvoiceDate),
		VendorName:     input.VendorName,
		BusinessNumber: input.BusinessNumber,
		UploaderID:     actor.ActorID(),
		TransactionID:  input.TransactionID,
	}
	invoice.ApplyAmounts(input.SalesAmount, input.TaxAmount)

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if input.TransactionID != nil {
			txn, err := tx.Transactions().GetByID(ctx, *input.TransactionID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return newValidationError("transaction_id", "transaction does not exist")
				}
				return err
			}
			if !txn.IsExpenditure() || txn.IsSettlement {
				return newValidationError("transaction_id", "only expenditures can carry an invoice")
			}
		}

		if err := tx.Invoices().Create(ctx, invoice); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: %s", ErrDuplicateInvoice, invoice.FullNumber())
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("register invoice", err)
	}

	s.metrics.IncrementCounter(metricInvoice, map[string]string{"type": string(invoice.Type), "event": "registered"})
	s.logger.LogInvoiceRegistered(ctx, invoice, actor)
	return invoice, nil
}

func validateInvoice(input *RegisterInvoiceInput) error {
	fields := map[string]string{}

	input.Track = strings.ToUpper(strings.TrimSpace(input.Track))
	input.Number = strings.TrimSpace(input.Number)
	input.VendorName = strings.TrimSpace(input.VendorName)
	input.BusinessNumber = strings.TrimSpace(input.BusinessNumber)

	if !input.Type.Valid() {
		fields["type"] = "must be cash_register, duplicate, triplicate, electronic or other"
	}
	if !trackRegex.MatchString(input.Track) {
		fields["track"] = "must be 1-10 letters"
	}
	if !invoiceNumberRegex.MatchString(input.Number) {
		fields["number"] = "must be 1-20 digits"
	}
	if input.InvoiceDate.IsZero() {
		fields["invoice_date"] = "is required"
	}
	if len(input.VendorName) > 100 {
		fields["vendor_name"] = "must be at most 100 characters"
	}
	if input.BusinessNumber != "" && !businessNumberRegex.MatchString(input.BusinessNumber) {
		fields["business_number"] = "must be at most 20 digits"
	}
	if input.SalesAmount.IsNegative() {
		fields["sales_amount"] = "must not be negative"
	} else if !input.SalesAmount.Equal(input.SalesAmount.Round(2)) {
		fields["sales_amount"] = "must have at most 2 decimal places"
	}
	if input.TaxAmount.IsNegative() {
		fields["tax_amount"] = "must not be negative"
	} else if !input.TaxAmount.Equal(input.TaxAmount.Round(2)) {
		fields["tax_amount"] = "must have at most 2 decimal places"
	}
	if input.SalesAmount.Add(input.TaxAmount).IsZero() && fields["sales_amount"] == "" && fields["tax_amount"] == "" {
		fields["sales_amount"] = "invoice total must be positive"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.store.Invoices().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get invoice", err)
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int64, error) {
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, 0, newValidationError("type", "unknown invoice type")
	}
	invoices, total, err := s.store.Invoices().List(ctx, filters)
	if err != nil {
		return nil, 0, storageErr("list invoices", err)
	}
	return invoices, total, nil
}

// Delete removes an invoice. Only its uploader or an approver may.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	if actor == nil {
		return denied("delete invoice", "no actor")
	}

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		invoice, err := tx.Invoices().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.UploaderID != actor.ActorID() && !actor.IsApprover() {
			return denied("delete invoice", "only the uploader or an approver may delete it")
		}
		return tx.Invoices().Delete(ctx, id)
	})
	if err != nil {
		return storageErr("delete invoice", err)
	}

	s.metrics.IncrementCounter(metricInvoice, map[string]string{"event": "deleted"})
	return nil
}

// MonthlyRegister lists the invoices dated in the month, grouped by type in
// the fixed type order, with per-type and overall totals. Types without
// invoices are omitted.
func (s *InvoiceService) MonthlyRegister(ctx context.Context, year, month int) (*InvoiceRegister, error) {
	if year < 1900 || year > 9999 {
		return nil, newValidationError("year", "must be between 1900 and 9999")
	}
	if month < 1 || month > 12 {
		return nil, newValidationError("month", "must be between 1 and 12")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	invoices, err := s.store.Invoices().ListForPeriod(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, storageErr("invoice register", err)
	}

	byType := make(map[models.InvoiceType][]models.Invoice, len(models.InvoiceTypes))
	for _, invoice := range invoices {
		byType[invoice.Type] = append(byType[invoice.Type], invoice)
	}

	register := &InvoiceRegister{
		Year:  year,
		Month: month,
		Count: len(invoices),
		Sales: decimal.Zero,
		Tax:   decimal.Zero,
		Total: decimal.Zero,
	}
	for _, invoiceType := range models.InvoiceTypes {
		group := InvoiceGroup{
			Type:     invoiceType,
			Invoices: byType[invoiceType],
			Sales:    decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.Zero,
		}
		if len(group.Invoices) == 0 {
			continue
		}
		for _, invoice := range group.Invoices {
			group.Sales = group.Sales.Add(invoice.SalesAmount)
			group.Tax = group.Tax.Add(invoice.TaxAmount)
			group.Total = group.Total.Add(invoice.TotalAmount)
		}
		register.Sales = register.Sales.Add(group.Sales)
		register.Tax = register.Tax.Add(group.Tax)
		register.Total = register.Total.Add(group.Total)
		register.Groups = append(register.Groups, group)
	}

	return register, nil
}
