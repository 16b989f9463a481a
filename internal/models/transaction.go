package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType distinguishes money coming into the box from money going out.
type TransactionType string

const (
	TransactionTypeIncome      TransactionType = "income"
	TransactionTypeExpenditure TransactionType = "expenditure"
)

// TaxRegime is the tax treatment of a transaction.
type TaxRegime string

const (
	TaxRegimeTaxable   TaxRegime = "taxable"
	TaxRegimeZeroTax   TaxRegime = "zero_tax"
	TaxRegimeTaxExempt TaxRegime = "tax_exempt"
)

// TaxMethod says whether the entered amount excludes or already includes tax.
// The empty value means not applicable and behaves as exclusive for taxable amounts.
type TaxMethod string

const (
	TaxMethodNone      TaxMethod = ""
	TaxMethodExclusive TaxMethod = "exclusive"
	TaxMethodInclusive TaxMethod = "inclusive"
)

// ApprovalStatus is the lifecycle state of a transaction.
type ApprovalStatus string

const (
	StatusDraft    ApprovalStatus = "draft"
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidTaxRegime       = errors.New("invalid tax regime")
	ErrInvalidTaxMethod       = errors.New("invalid tax method")
	ErrInvalidApprovalStatus  = errors.New("invalid approval status")
	ErrSignMismatch           = errors.New("total amount does not match subtotal, tax and type")
	ErrMissingDescription     = errors.New("transaction description is required")
)

// Transaction is a single ledger entry. Expenditures own line items and are
// stored with a negative total; incomes and carry-forward rows are positive.
type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Type             TransactionType `gorm:"column:transaction_type;type:varchar(20);not null;index" json:"type"`
	TaxRegime        TaxRegime       `gorm:"type:varchar(20);not null;default:'taxable'" json:"tax_regime"`
	TaxMethod        TaxMethod       `gorm:"type:varchar(20)" json:"tax_method,omitempty"`
	ApplicationDate  time.Time       `gorm:"not null" json:"application_date"`
	TransactionDate  time.Time       `gorm:"not null;index" json:"transaction_date"`
	ApplicantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"applicant_id"`
	Description      string          `gorm:"type:varchar(200);not null" json:"description"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	Tax              decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"tax"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	Status           ApprovalStatus  `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	ApproverID       *uuid.UUID      `gorm:"type:uuid" json:"approver_id,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	RejectionReason  string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	ERPDocNumber     string          `gorm:"column:erp_document_number;type:varchar(100)" json:"erp_document_number,omitempty"`
	IsSettlement     bool            `gorm:"not null;default:false;index" json:"is_settlement"`
	SettlementPeriod *string         `gorm:"type:varchar(7);uniqueIndex" json:"settlement_period,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`

	// Associations
	LineItems []LineItem `gorm:"foreignKey:TransactionID" json:"line_items,omitempty"`
	Category  *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BeforeCreate hook for Transaction
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now().UTC()

	if t.Status == "" {
		t.Status = StatusDraft
	}
	if t.TaxRegime == "" {
		t.TaxRegime = TaxRegimeTaxable
	}
	if t.ApplicationDate.IsZero() {
		t.ApplicationDate = DateOnly(now)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

// BeforeUpdate hook for Transaction
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Validate checks the field-level rules of a transaction.
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if !t.TaxRegime.Valid() {
		return ErrInvalidTaxRegime
	}
	if !t.TaxMethod.Valid() {
		return ErrInvalidTaxMethod
	}
	if !t.Status.Valid() {
		return ErrInvalidApprovalStatus
	}
	if t.Description == "" {
		return ErrMissingDescription
	}
	if t.ApplicantID == uuid.Nil {
		return errors.New("applicant ID is required")
	}
	if !t.TotalAmount.Equal(t.Type.Sign().Mul(t.Subtotal.Add(t.Tax))) {
		return ErrSignMismatch
	}
	return nil
}

// ApplyAmounts stores a tax breakdown on the transaction with the sign of its type.
func (t *Transaction) ApplyAmounts(subtotal, tax decimal.Decimal) {
	t.Subtotal = subtotal
	t.Tax = tax
	t.TotalAmount = t.Type.Sign().Mul(subtotal.Add(tax))
}

// IsExpenditure reports whether money leaves the box.
func (t *Transaction) IsExpenditure() bool {
	return t.Type == TransactionTypeExpenditure
}

// IsIncome reports whether money enters the box.
func (t *Transaction) IsIncome() bool {
	return t.Type == TransactionTypeIncome
}

// BaseAmount is the pre-tax sum of the line totals.
func (t *Transaction) BaseAmount() decimal.Decimal {
	base := decimal.Zero
	for _, item := range t.LineItems {
		base = base.Add(item.LineTotal)
	}
	return base
}

// CoveredThrough is the last day a carry-forward row accounts for. Rows are
// dated the first day of the next period, so this is the settled month end.
func (t *Transaction) CoveredThrough() time.Time {
	return DateOnly(t.TransactionDate).AddDate(0, 0, -1)
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

// Valid reports whether the type is one of the declared constants.
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeIncome, TransactionTypeExpenditure:
		return true
	default:
		return false
	}
}

// Sign is +1 for income and -1 for expenditure.
func (tt TransactionType) Sign() decimal.Decimal {
	if tt == TransactionTypeExpenditure {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

func (r TaxRegime) Valid() bool {
	switch r {
	case TaxRegimeTaxable, TaxRegimeZeroTax, TaxRegimeTaxExempt:
		return true
	default:
		return false
	}
}

func (m TaxMethod) Valid() bool {
	switch m {
	case TaxMethodNone, TaxMethodExclusive, TaxMethodInclusive:
		return true
	default:
		return false
	}
}

func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

var validTransitions = map[ApprovalStatus][]ApprovalStatus{
	StatusDraft:    {StatusPending},
	StatusPending:  {StatusApproved, StatusRejected},
	StatusRejected: {StatusPending},
	StatusApproved: {}, // Terminal state
}

// CanTransitionTo checks the approval state machine.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, status := range validTransitions[s] {
		if status == next {
			return true
		}
	}
	return false
}

// IsEditableByApplicant reports whether the applicant may still change the record.
func (s ApprovalStatus) IsEditableByApplicant() bool {
	return s == StatusDraft || s == StatusRejected
}

// SettlementPeriodKey renders the unique key of a month-end settlement.
func SettlementPeriodKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// SettlementLabel is the human-readable description of a carry-forward row.
func SettlementLabel(actorName string, year, month int) string {
	return fmt.Sprintf("[%s] carry-forward of %s month-end balance", actorName, SettlementPeriodKey(year, month))
}

// DateOnly truncates a timestamp to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last calendar day of the given month.
func MonthEnd(year, month int) time.Time {
	return time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}
