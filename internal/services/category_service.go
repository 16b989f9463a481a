package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
)

// CategoryService manages expense categories.
type CategoryService struct {
	store repositories.Store
}

func NewCategoryService(store repositories.Store) *CategoryService {
	return &CategoryService{store: store}
}

// Create adds a category with a unique name. Approver only.
func (s *CategoryService) Create(ctx context.Context, name string, actor models.Actor) (*models.Category, error) {
	if actor == nil || !actor.IsApprover() {
		return nil, denied("create category", "approver role required")
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, newValidationError("name", "must be 1-100 characters")
	}

	category := &models.Category{Name: name}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("category %q already exists: %w", name, ErrReferentialConflict)
		}
		return nil, storageErr("create category", err)
	}
	return category, nil
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	return categories, nil
}

// Delete removes an unused category. Approver only.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	if actor == nil || !actor.IsApprover() {
		return denied("delete category", "approver role required")
	}

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Categories().GetByID(ctx, id); err != nil {
			return err
		}

		inUse, err := tx.Transactions().CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("category is used by %d transactions: %w", inUse, ErrReferentialConflict)
		}

		return tx.Categories().Delete(ctx, id)
	})
	return storageErr("delete category", err)
}
