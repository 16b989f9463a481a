package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pettycash/internal/config"
	"pettycash/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

func gormConfig(cfg *config.DatabaseConfig) *gorm.Config {
	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}

	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("can not create database directory %s: %w", dir, err)
			}
		}
		return sqlite.Open(cfg.Path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func New(cfg *config.DatabaseConfig) (*DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serialises writers; one connection keeps transactions from tripping SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.LineItem{},
		&models.CashCountSession{},
		&models.CashCountDenomination{},
		&models.Invoice{},
		&models.BlacklistedToken{},
	)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) HealthCheck() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) Transaction(fn func(*gorm.DB) error) error {
	return db.DB.Transaction(fn)
}

func (db *DB) CreateIndexes() error {
	queries := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_type_date ON transactions(transaction_type, transaction_date)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_status_application_date ON transactions(status, application_date)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_settlement_date ON transactions(is_settlement, transaction_date)",
		"CREATE INDEX IF NOT EXISTS idx_line_items_transaction_position ON line_items(transaction_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_cash_count_denominations_session_denomination ON cash_count_denominations(session_id, denomination)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_type_date ON invoices(invoice_type, invoice_date)",
	}

	for _, query := range queries {
		if err := db.DB.Exec(query).Error; err != nil {
			slog.Warn("failed to create index", "query", query, "error", err)
		}
	}

	return nil
}

// migrationConn returns the connection golang-migrate should own. The
// sqlite3 migrate driver closes its instance, so sqlite gets a private handle.
func (db *DB) migrationConn() (*sql.DB, func(), error) {
	if db.config.Driver == config.DriverSQLite {
		conn, err := sql.Open("sqlite3", db.config.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open migration database: %w", err)
		}
		return conn, func() { _ = conn.Close() }, nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB, func() {}, nil
}

// NewMigrationRunner binds a runner to this database's driver.
func (db *DB) NewMigrationRunner() (*MigrationRunner, func(), error) {
	conn, release, err := db.migrationConn()
	if err != nil {
		return nil, nil, err
	}
	return NewMigrationRunner(conn, db.config.Driver), release, nil
}

// Initialize creates and configures the database connection
func Initialize(cfg *config.Config) (*DB, error) {
	db, err := New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.runMigrations(); err != nil {
			slog.Warn("migration runner failed, falling back to AutoMigrate", "error", err)

			if err := db.AutoMigrate(); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	} else {
		slog.Info("auto-migration disabled")
	}

	if err := db.CreateIndexes(); err != nil {
		slog.Warn("failed to create some indexes", "error", err)
	}

	slog.Info("database initialized", "driver", cfg.Database.Driver)

	return db, nil
}

func (db *DB) runMigrations() error {
	runner, release, err := db.NewMigrationRunner()
	if err != nil {
		return err
	}
	defer release()

	if err := runner.WaitForDatabase(); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}

	if err := runner.RunMigrations(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	return nil
}
