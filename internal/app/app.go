package app

import (
	"fmt"
	"log/slog"

	"pettycash/internal/config"
	"pettycash/internal/database"
	"pettycash/internal/events"
	"pettycash/internal/repositories"
	"pettycash/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the configured database and every ledger service.
type App struct {
	Config   *config.Config
	DB       *database.DB
	Store    repositories.Store
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Publisher events.Publisher
	Metrics   services.MetricsRecorderInterface

	Tokens       *services.TokenService
	Auth         *services.AuthService
	Balance      *services.BalanceService
	Transactions *services.TransactionService
	Approvals    *services.ApprovalService
	Settlements  *services.SettlementService
	CashCounts   *services.CashCountService
	Categories   *services.CategoryService
	Reports      *services.ReportService
	Invoices     *services.InvoiceService
}

// New opens the database, connects the event publisher when one is
// configured and builds the services. The returned cleanup closes everything.
func New(cfg *config.Config, logger *slog.Logger) (*App, func(), error) {
	db, err := database.Initialize(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := NewWithDB(cfg, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		a.Balance.Close()
		if err := a.Publisher.Close(); err != nil {
			logger.Warn("failed to close event publisher", "error", err)
		}
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}
	return a, cleanup, nil
}

// NewWithDB builds the services over an already open database.
func NewWithDB(cfg *config.Config, db *database.DB, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewPrometheusMetrics(registry)

	publisher, err := newPublisher(cfg.Events, logger)
	if err != nil {
		return nil, err
	}

	store := repositories.NewStore(db.DB)
	balance, err := services.NewBalanceService(store, metrics, cfg.Ledger.BalanceCacheEnabled)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create balance service: %w", err)
	}

	ledgerLogger := services.NewLedgerLogger(logger)
	tokens := services.NewTokenService(&cfg.JWT)

	return &App{
		Config:    cfg,
		DB:        db,
		Store:     store,
		Logger:    logger,
		Registry:  registry,
		Publisher: publisher,
		Metrics:   metrics,

		Tokens:       tokens,
		Auth:         services.NewAuthService(store.Users(), store.BlacklistedTokens(), services.NewPasswordService(cfg.Security.BCryptCost), tokens, ledgerLogger, metrics),
		Balance:      balance,
		Transactions: services.NewTransactionService(store, balance, ledgerLogger, metrics),
		Approvals:    services.NewApprovalService(store, balance, ledgerLogger, metrics, publisher),
		Settlements:  services.NewSettlementService(store, balance, ledgerLogger, metrics, publisher),
		CashCounts:   services.NewCashCountService(store, balance, cfg.Ledger.Denominations, ledgerLogger, metrics, publisher),
		Categories:   services.NewCategoryService(store),
		Reports:      services.NewReportService(store),
		Invoices:     services.NewInvoiceService(store, ledgerLogger, metrics),
	}, nil
}

func newPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("ledger events disabled, no AMQP URL configured")
		return events.NoopPublisher{}, nil
	}

	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, cfg.RoutingKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	logger.Info("ledger events enabled", "exchange", cfg.Exchange, "routing_key", cfg.RoutingKey, "queue_size", cfg.QueueSize)
	breaker := events.NewBreakerPublisher(publisher, events.DefaultBreakerConfig(), logger)
	return events.NewAsyncPublisher(breaker, cfg.QueueSize, logger), nil
}
