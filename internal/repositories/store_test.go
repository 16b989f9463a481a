package repositories

import (
	"context"
	"errors"
	"testing"

	"pettycash/internal/database"
	"pettycash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTransactionCommits(t *testing.T) {
	db := database.SetupTestDB(t)
	store := NewStore(db.DB)
	ctx := context.Background()

	err := store.WithinTransaction(ctx, func(tx Store) error {
		return tx.Categories().Create(ctx, &models.Category{Name: "Office"})
	})
	require.NoError(t, err)

	categories, err := store.Categories().List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestStore_WithinTransactionRollsBack(t *testing.T) {
	db := database.SetupTestDB(t)
	store := NewStore(db.DB)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.Categories().Create(ctx, &models.Category{Name: "Office"}); err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, &models.User{Username: "alice", DisplayName: "Alice", PasswordHash: "x", Role: models.RoleMember}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	categories, err := store.Categories().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
