package database

import (
	"fmt"
	"testing"
	"time"

	"pettycash/internal/config"
	"pettycash/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Path:           ":memory:",
		MaxConnections: 1,
		MaxIdleConns:   1,
	}

	gormCfg := gormConfig(cfg)
	gormCfg.Logger = logger.Default.LogMode(logger.Silent)

	db, err := gorm.Open(sqlite.Open(":memory:"), gormCfg)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// every new connection to :memory: is an empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	testDB := &DB{
		DB:     db,
		config: cfg,
	}

	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { _ = testDB.Close() })

	return testDB
}

func CreateTestUser(t *testing.T, db *DB, username string) *models.User {
	t.Helper()
	return createTestUser(t, db, username, models.RoleMember)
}

func CreateTestApprover(t *testing.T, db *DB, username string) *models.User {
	t.Helper()
	return createTestUser(t, db, username, models.RoleApprover)
}

func createTestUser(t *testing.T, db *DB, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		DisplayName:  fmt.Sprintf("Test %s", username),
		PasswordHash: "hashed_password",
		Role:         role,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

func CreateTestCategory(t *testing.T, db *DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	return category
}

// CreateTestTransaction inserts a tax-exempt row whose total equals amount
// with the sign of its type.
func CreateTestTransaction(t *testing.T, db *DB, applicant *models.User, txType models.TransactionType, status models.ApprovalStatus, amount string, date time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		Type:            txType,
		TaxRegime:       models.TaxRegimeTaxExempt,
		TransactionDate: models.DateOnly(date),
		ApplicantID:     applicant.ID,
		Description:     fmt.Sprintf("test %s %s", txType, amount),
		Status:          status,
	}
	txn.ApplyAmounts(decimal.RequireFromString(amount), decimal.Zero)

	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}

	return txn
}

func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	tables := []string{
		"blacklisted_tokens",
		"invoices",
		"cash_count_denominations",
		"cash_count_sessions",
		"line_items",
		"transactions",
		"categories",
		"users",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("failed to cleanup table %s: %v", table, err)
		}
	}
}
