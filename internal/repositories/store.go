package repositories

import (
	"context"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transactions() TransactionRepositoryInterface {
	return NewTransactionRepository(s.db)
}

func (s *gormStore) Categories() CategoryRepositoryInterface {
	return NewCategoryRepository(s.db)
}

func (s *gormStore) CashCounts() CashCountRepositoryInterface {
	return NewCashCountRepository(s.db)
}

func (s *gormStore) Users() UserRepositoryInterface {
	return NewUserRepository(s.db)
}

func (s *gormStore) Invoices() InvoiceRepositoryInterface {
	return NewInvoiceRepository(s.db)
}

func (s *gormStore) BlacklistedTokens() BlacklistedTokenRepositoryInterface {
	return NewBlacklistedTokenRepository(s.db)
}

// WithinTransaction runs fn against a Store bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
// Nested calls reuse gorm's savepoint support.
func (s *gormStore) WithinTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
