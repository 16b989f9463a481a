package repositories

import (
	"context"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepositoryInterface defines the contract for ledger transaction operations
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	Update(ctx context.Context, transaction *models.Transaction) error
	UpdateWithLineItems(ctx context.Context, transaction *models.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error)
	ListPending(ctx context.Context, offset, limit int) ([]models.Transaction, int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// Balance aggregates
	SumTotalAmount(ctx context.Context, filter models.LedgerSumFilter) (decimal.Decimal, error)
	ExpenditureTotalsByCategory(ctx context.Context, start, end time.Time) ([]models.CategoryTotal, error)
	Version(ctx context.Context) (models.LedgerVersion, error)

	// Settlements
	LatestSettlement(ctx context.Context) (*models.Transaction, error)
	FindSettlement(ctx context.Context, period string) (*models.Transaction, error)
	ListSettlements(ctx context.Context) ([]models.Transaction, error)
	LockSettlementPeriod(ctx context.Context, period string) error
}

// CategoryRepositoryInterface defines the contract for category operations
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CashCountRepositoryInterface defines the contract for cash count session operations
type CashCountRepositoryInterface interface {
	Create(ctx context.Context, session *models.CashCountSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CashCountSession, error)
	List(ctx context.Context, offset, limit int) ([]models.CashCountSession, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for revoked access tokens
type BlacklistedTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// InvoiceRepositoryInterface defines the contract for the invoice register
type InvoiceRepositoryInterface interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int64, error)
	ListForPeriod(ctx context.Context, start, end time.Time) ([]models.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error)
}

// Store groups the repositories over one connection. Inside WithinTransaction
// every repository shares the same database transaction.
type Store interface {
	Transactions() TransactionRepositoryInterface
	Categories() CategoryRepositoryInterface
	CashCounts() CashCountRepositoryInterface
	Users() UserRepositoryInterface
	Invoices() InvoiceRepositoryInterface
	BlacklistedTokens() BlacklistedTokenRepositoryInterface
	WithinTransaction(ctx context.Context, fn func(Store) error) error
}
