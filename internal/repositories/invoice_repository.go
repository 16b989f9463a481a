package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepositoryInterface {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("failed to create invoice: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

// List returns invoices newest first, with the total count before pagination
func (r *invoiceRepository) List(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})

	if filters.Type != "" {
		query = query.Where("invoice_type = ?", filters.Type)
	}
	if filters.StartDate != nil {
		query = query.Where("invoice_date >= ?", models.DateOnly(*filters.StartDate))
	}
	if filters.EndDate != nil {
		query = query.Where("invoice_date <= ?", models.DateOnly(*filters.EndDate))
	}
	if filters.TransactionID != nil {
		query = query.Where("transaction_id = ?", *filters.TransactionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	offset, limit := normalizePage(filters.Offset, filters.Limit)

	var invoices []models.Invoice
	if err := query.
		Order("invoice_date DESC").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&invoices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	return invoices, total, nil
}

// ListForPeriod returns invoices dated in [start, end), ordered by type then
// date then number
func (r *invoiceRepository) ListForPeriod(ctx context.Context, start, end time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("invoice_date >= ? AND invoice_date < ?", models.DateOnly(start), models.DateOnly(end)).
		Order("invoice_type ASC").
		Order("invoice_date ASC").
		Order("invoice_number ASC").
		Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices for period: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Invoice{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) CountByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count invoices by transaction: %w", err)
	}
	return count, nil
}
