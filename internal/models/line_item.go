package models

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidQuantity  = errors.New("line item quantity must not be negative")
	ErrInvalidUnitPrice = errors.New("line item unit price must not be negative")
	ErrMissingItemName  = errors.New("line item name is required")
)

// LineItem is one priced row of an expenditure.
type LineItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Position      int             `gorm:"not null;default:0" json:"position"`
	Name          string          `gorm:"type:varchar(100);not null" json:"name"`
	Quantity      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"quantity"`
	Unit          string          `gorm:"type:varchar(20)" json:"unit,omitempty"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"line_total"`
}

// NewLineItem prices a row as quantity times unit price.
func NewLineItem(name string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal) LineItem {
	return LineItem{
		Name:      name,
		Quantity:  quantity,
		Unit:      unit,
		UnitPrice: unitPrice,
		LineTotal: quantity.Mul(unitPrice).Round(2),
	}
}

func (li *LineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return li.Validate()
}

func (li *LineItem) Validate() error {
	if li.Name == "" {
		return ErrMissingItemName
	}
	if li.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if li.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	return nil
}

func (li *LineItem) TableName() string {
	return "line_items"
}
