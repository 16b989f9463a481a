package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionFilters contains filtering options for transaction listings
type TransactionFilters struct {
	Type       TransactionType
	Status     ApprovalStatus
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *uuid.UUID
	Offset     int
	Limit      int
}

// LedgerSumFilter selects the rows that feed a balance aggregate. After is
// exclusive and OnOrBefore is inclusive; nil bounds are open.
type LedgerSumFilter struct {
	Type               TransactionType
	After              *time.Time
	OnOrBefore         *time.Time
	ExcludeSettlements bool
}

// LedgerVersion fingerprints the transactions table. Any insert, edit or
// delete, from any process, yields a different value.
type LedgerVersion struct {
	RowCount    int64
	LastUpdated string
}

func (v LedgerVersion) String() string {
	return fmt.Sprintf("%d@%s", v.RowCount, v.LastUpdated)
}
