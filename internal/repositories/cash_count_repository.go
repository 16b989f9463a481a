package repositories

import (
	"context"
	"errors"
	"fmt"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type cashCountRepository struct {
	db *gorm.DB
}

// NewCashCountRepository creates a new cash count repository
func NewCashCountRepository(db *gorm.DB) CashCountRepositoryInterface {
	return &cashCountRepository{db: db}
}

// Create inserts a session and its denomination lines in one database transaction
func (r *cashCountRepository) Create(ctx context.Context, session *models.CashCountSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to create cash count session: %w", err)
		}
		return nil
	})
}

func (r *cashCountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CashCountSession, error) {
	var session models.CashCountSession
	err := r.db.WithContext(ctx).
		Preload("Denominations", func(db *gorm.DB) *gorm.DB {
			return db.Order("denomination DESC")
		}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCashCountNotFound
		}
		return nil, fmt.Errorf("failed to get cash count session: %w", err)
	}
	return &session, nil
}

// List returns sessions newest first
func (r *cashCountRepository) List(ctx context.Context, offset, limit int) ([]models.CashCountSession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CashCountSession{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cash count sessions: %w", err)
	}

	offset, limit = normalizePage(offset, limit)

	var sessions []models.CashCountSession
	if err := r.db.WithContext(ctx).
		Order("counted_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list cash count sessions: %w", err)
	}

	return sessions, total, nil
}

// Delete removes a session and its denomination lines in one database transaction
func (r *cashCountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.CashCountDenomination{}).Error; err != nil {
			return fmt.Errorf("failed to delete denomination lines: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.CashCountSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete cash count session: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCashCountNotFound
		}
		return nil
	})
}
