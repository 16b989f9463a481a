package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultDenominations are the notes and coins counted in the box.
var DefaultDenominations = []int{1000, 500, 100, 50, 10, 5, 1}

var ErrInvalidCount = errors.New("denomination count must not be negative")

// CashCountSession reconciles a physical count against the book balance.
type CashCountSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CountedAt     time.Time       `gorm:"not null;index" json:"counted_at"`
	CountedTotal  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"counted_total"`
	SystemBalance decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"system_balance"`
	Difference    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"difference"`
	OperatorID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"operator_id"`

	Denominations []CashCountDenomination `gorm:"foreignKey:SessionID" json:"denominations,omitempty"`
}

// NewCashCountSession builds a session from non-zero denomination counts.
// Lines are ordered from the largest face value down.
func NewCashCountSession(counts map[int]int, denominations []int, systemBalance decimal.Decimal, operatorID uuid.UUID, countedAt time.Time) *CashCountSession {
	session := &CashCountSession{
		CountedAt:     countedAt,
		SystemBalance: systemBalance,
		OperatorID:    operatorID,
	}

	total := decimal.Zero
	for _, face := range denominations {
		count := counts[face]
		if count <= 0 {
			continue
		}
		line := NewCashCountDenomination(face, count)
		total = total.Add(line.Subtotal)
		session.Denominations = append(session.Denominations, line)
	}

	session.CountedTotal = total
	session.Difference = total.Sub(systemBalance)
	return session
}

func (s *CashCountSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CountedAt.IsZero() {
		s.CountedAt = time.Now().UTC()
	}
	if s.OperatorID == uuid.Nil {
		return errors.New("operator ID is required")
	}
	return nil
}

// IsBalanced reports whether the count matched the books exactly.
func (s *CashCountSession) IsBalanced() bool {
	return s.Difference.IsZero()
}

func (s *CashCountSession) TableName() string {
	return "cash_count_sessions"
}

// CashCountDenomination is the count of one face value within a session.
type CashCountDenomination struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SessionID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"session_id"`
	Denomination int             `gorm:"not null" json:"denomination"`
	Count        int             `gorm:"not null" json:"count"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
}

func NewCashCountDenomination(face, count int) CashCountDenomination {
	return CashCountDenomination{
		Denomination: face,
		Count:        count,
		Subtotal:     decimal.NewFromInt(int64(face)).Mul(decimal.NewFromInt(int64(count))),
	}
}

func (d *CashCountDenomination) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Count < 0 {
		return ErrInvalidCount
	}
	return nil
}

func (d *CashCountDenomination) TableName() string {
	return "cash_count_denominations"
}
