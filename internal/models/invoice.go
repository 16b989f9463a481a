package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceType is the form of a uniform invoice.
type InvoiceType string

const (
	InvoiceTypeCashRegister InvoiceType = "cash_register"
	InvoiceTypeDuplicate    InvoiceType = "duplicate"
	InvoiceTypeTriplicate   InvoiceType = "triplicate"
	InvoiceTypeElectronic   InvoiceType = "electronic"
	InvoiceTypeOther        InvoiceType = "other"
)

// InvoiceTypes lists the types in report order.
var InvoiceTypes = []InvoiceType{
	InvoiceTypeCashRegister,
	InvoiceTypeDuplicate,
	InvoiceTypeTriplicate,
	InvoiceTypeElectronic,
	InvoiceTypeOther,
}

var (
	ErrInvalidInvoiceType = errors.New("invalid invoice type")
	ErrInvoiceTotal       = errors.New("invoice total does not equal sales plus tax")
)

// Invoice is a received purchase invoice kept for the tax filing. It may be
// linked to the expenditure it supports.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Type           InvoiceType     `gorm:"column:invoice_type;type:varchar(20);not null;index" json:"type"`
	Track          string          `gorm:"type:varchar(10);not null" json:"track"`
	Number         string          `gorm:"column:invoice_number;type:varchar(20);not null;uniqueIndex" json:"number"`
	InvoiceDate    time.Time       `gorm:"not null;index" json:"invoice_date"`
	VendorName     string          `gorm:"type:varchar(100)" json:"vendor_name,omitempty"`
	BusinessNumber string          `gorm:"type:varchar(20)" json:"business_number,omitempty"`
	SalesAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"sales_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	UploaderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"uploader_id"`
	TransactionID  *uuid.UUID      `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	if !i.Type.Valid() {
		return ErrInvalidInvoiceType
	}
	if !i.TotalAmount.Equal(i.SalesAmount.Add(i.TaxAmount)) {
		return ErrInvoiceTotal
	}
	return nil
}

// ApplyAmounts sets the sales and tax amounts and derives the total.
func (i *Invoice) ApplyAmounts(sales, tax decimal.Decimal) {
	i.SalesAmount = sales
	i.TaxAmount = tax
	i.TotalAmount = sales.Add(tax)
}

// FullNumber is the track letters followed by the serial, e.g. AB12345678.
func (i *Invoice) FullNumber() string {
	return i.Track + i.Number
}

func (i *Invoice) TableName() string {
	return "invoices"
}

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeCashRegister, InvoiceTypeDuplicate, InvoiceTypeTriplicate,
		InvoiceTypeElectronic, InvoiceTypeOther:
		return true
	default:
		return false
	}
}

// Label is the name printed on the monthly register.
func (t InvoiceType) Label() string {
	switch t {
	case InvoiceTypeCashRegister:
		return "Cash register"
	case InvoiceTypeDuplicate:
		return "Duplicate"
	case InvoiceTypeTriplicate:
		return "Triplicate"
	case InvoiceTypeElectronic:
		return "Electronic"
	default:
		return "Other"
	}
}

// InvoiceFilters contains filtering options for invoice listings
type InvoiceFilters struct {
	Type          InvoiceType
	StartDate     *time.Time
	EndDate       *time.Time
	TransactionID *uuid.UUID
	Offset        int
	Limit         int
}
