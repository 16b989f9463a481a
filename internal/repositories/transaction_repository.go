package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

func numberLineItems(transaction *models.Transaction) {
	for i := range transaction.LineItems {
		transaction.LineItems[i].TransactionID = transaction.ID
		transaction.LineItems[i].Position = i
	}
}

// Create inserts a transaction together with its line items
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	numberLineItems(transaction)

	if err := r.db.WithContext(ctx).Omit("Category").Create(transaction).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("failed to create transaction: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction with its line items and category
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Category").
		Where("id = ?", id).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// Update writes every header column of the transaction. Line items are untouched.
func (r *transactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	result := r.db.WithContext(ctx).
		Model(transaction).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(transaction)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// UpdateWithLineItems replaces the header and the full set of line items atomically
func (r *transactionRepository) UpdateWithLineItems(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := &transactionRepository{db: tx}
		if err := repo.Update(ctx, transaction); err != nil {
			return err
		}

		if err := tx.Where("transaction_id = ?", transaction.ID).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete line items: %w", err)
		}

		if len(transaction.LineItems) == 0 {
			return nil
		}

		numberLineItems(transaction)
		for i := range transaction.LineItems {
			transaction.LineItems[i].ID = uuid.Nil
		}
		if err := tx.Create(&transaction.LineItems).Error; err != nil {
			return fmt.Errorf("failed to create line items: %w", err)
		}
		return nil
	})
}

// Delete removes a transaction and its line items in one database transaction
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete line items: %w", err)
		}
		if err := tx.Model(&models.Invoice{}).Where("transaction_id = ?", id).Update("transaction_id", nil).Error; err != nil {
			return fmt.Errorf("failed to unlink invoices: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Transaction{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTransactionNotFound
		}
		return nil
	})
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

// List returns transactions newest first, with the total count before pagination
func (r *transactionRepository) List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})

	if filters.Type != "" {
		query = query.Where("transaction_type = ?", filters.Type)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.StartDate != nil {
		query = query.Where("transaction_date >= ?", models.DateOnly(*filters.StartDate))
	}
	if filters.EndDate != nil {
		query = query.Where("transaction_date <= ?", models.DateOnly(*filters.EndDate))
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	offset, limit := normalizePage(filters.Offset, filters.Limit)

	var transactions []models.Transaction
	if err := query.
		Preload("Category").
		Order("transaction_date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, total, nil
}

// ListPending returns the approval queue, oldest application first
func (r *transactionRepository) ListPending(ctx context.Context, offset, limit int) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("status = ?", models.StatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending transactions: %w", err)
	}

	offset, limit = normalizePage(offset, limit)

	var transactions []models.Transaction
	if err := query.
		Preload("Category").
		Order("application_date ASC").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get pending transactions: %w", err)
	}

	return transactions, total, nil
}

func (r *transactionRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions by category: %w", err)
	}
	return count, nil
}

// SumTotalAmount adds up total_amount over the matching rows. The rows are
// summed as decimals here; SQL SUM on sqlite would go through floating point.
func (r *transactionRepository) SumTotalAmount(ctx context.Context, filter models.LedgerSumFilter) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{})

	if filter.Type != "" {
		query = query.Where("transaction_type = ?", filter.Type)
	}
	if filter.After != nil {
		query = query.Where("transaction_date > ?", models.DateOnly(*filter.After))
	}
	if filter.OnOrBefore != nil {
		query = query.Where("transaction_date <= ?", models.DateOnly(*filter.OnOrBefore))
	}
	if filter.ExcludeSettlements {
		query = query.Where("is_settlement = ?", false)
	}

	var amounts []decimal.Decimal
	if err := query.Pluck("total_amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}

	sum := decimal.Zero
	for _, amount := range amounts {
		sum = sum.Add(amount)
	}
	return sum, nil
}

// ExpenditureTotalsByCategory aggregates approved, categorized expenditures
// dated within [start, end]. Totals keep the stored (negative) sign.
func (r *transactionRepository) ExpenditureTotalsByCategory(ctx context.Context, start, end time.Time) ([]models.CategoryTotal, error) {
	type row struct {
		CategoryID  uuid.UUID
		TotalAmount decimal.Decimal
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("category_id, total_amount").
		Where("transaction_type = ?", models.TransactionTypeExpenditure).
		Where("status = ?", models.StatusApproved).
		Where("category_id IS NOT NULL").
		Where("transaction_date >= ? AND transaction_date <= ?", models.DateOnly(start), models.DateOnly(end)).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load expenditures by category: %w", err)
	}

	if len(rows) == 0 {
		return []models.CategoryTotal{}, nil
	}

	totals := make(map[uuid.UUID]decimal.Decimal)
	ids := make([]uuid.UUID, 0)
	for _, rw := range rows {
		if _, seen := totals[rw.CategoryID]; !seen {
			ids = append(ids, rw.CategoryID)
		}
		totals[rw.CategoryID] = totals[rw.CategoryID].Add(rw.TotalAmount)
	}

	var categories []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	result := make([]models.CategoryTotal, 0, len(categories))
	for _, category := range categories {
		result = append(result, models.CategoryTotal{
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Total:        totals[category.ID],
		})
	}

	// most negative first, i.e. largest spend first
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.LessThan(result[j].Total)
		}
		return result[i].CategoryName < result[j].CategoryName
	})

	return result, nil
}

// Version reads the row count and the newest updated_at of the ledger.
func (r *transactionRepository) Version(ctx context.Context) (models.LedgerVersion, error) {
	var row struct {
		RowCount    int64
		LastUpdated sql.NullString
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COUNT(*) AS row_count, MAX(updated_at) AS last_updated").
		Scan(&row).Error
	if err != nil {
		return models.LedgerVersion{}, fmt.Errorf("failed to read ledger version: %w", err)
	}
	return models.LedgerVersion{RowCount: row.RowCount, LastUpdated: row.LastUpdated.String}, nil
}

// LatestSettlement returns the carry-forward row with the latest date
func (r *transactionRepository) LatestSettlement(ctx context.Context) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("is_settlement = ?", true).
		Order("transaction_date DESC").
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get latest settlement: %w", err)
	}
	return &transaction, nil
}

func (r *transactionRepository) FindSettlement(ctx context.Context, period string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("is_settlement = ? AND settlement_period = ?", true, period).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find settlement: %w", err)
	}
	return &transaction, nil
}

func (r *transactionRepository) ListSettlements(ctx context.Context) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("is_settlement = ?", true).
		Order("transaction_date DESC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return transactions, nil
}

// LockSettlementPeriod serializes settlements of one period until the
// surrounding transaction ends. Only PostgreSQL needs it; sqlite allows a
// single writer at a time.
func (r *transactionRepository) LockSettlementPeriod(ctx context.Context, period string) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte("settlement:" + period))
	key := int64(h.Sum64())

	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
		return fmt.Errorf("failed to lock settlement period %s: %w", period, err)
	}
	return nil
}
