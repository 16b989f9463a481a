package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"pettycash/internal/app"
	"pettycash/internal/handlers"
	"pettycash/internal/middleware"
	"pettycash/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP boundary of the ledger.
type Server struct {
	echo *echo.Echo
	app  *app.App
}

// New builds the echo instance with the middleware chain and every route.
func New(a *app.App) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Server.ReadTimeout = a.Config.Server.ReadTimeout
	e.Server.WriteTimeout = a.Config.Server.WriteTimeout

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(services.NewLedgerLogger(a.Logger)))
	e.Use(middleware.SecurityHeaders(a.Config.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.Config.Server.CORSAllowOrigins,
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.TraceIDHeader},
	}))
	e.Use(middleware.RateLimiterWithConfig(a.Config.Security.RateLimitPerSecond, a.Config.Security.RateLimitBurst))

	s := &Server{echo: e, app: a}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	a := s.app
	e := s.echo

	health := handlers.NewHealthCheckHandler(a.DB.DB)
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		prometheus.Gatherers{a.Registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))

	auth := handlers.NewAuthHandler(a.Auth)
	transactions := handlers.NewTransactionHandler(a.Transactions, a.Approvals, a.Balance)
	ledger := handlers.NewLedgerHandler(a.Settlements, a.CashCounts, a.Categories, a.Reports)
	invoices := handlers.NewInvoiceHandler(a.Invoices)

	api := e.Group("/api/v1")
	api.POST("/auth/login", auth.Login)

	protected := api.Group("", middleware.RequireAuth(a.Tokens, a.Store.BlacklistedTokens()))
	approver := middleware.RequireApprover()

	protected.POST("/auth/logout", auth.Logout)

	protected.GET("/balance", transactions.GetBalance)

	protected.GET("/transactions", transactions.ListTransactions)
	protected.GET("/transactions/:id", transactions.GetTransaction)
	protected.DELETE("/transactions/:id", transactions.DeleteTransaction)
	protected.POST("/transactions/:id/submit", transactions.Submit)
	protected.POST("/transactions/:id/approve", transactions.Approve, approver)
	protected.POST("/transactions/:id/reject", transactions.Reject, approver)

	protected.POST("/expenditures", transactions.CreateExpenditure)
	protected.PUT("/expenditures/:id", transactions.EditExpenditure)
	protected.POST("/incomes", transactions.CreateIncome, approver)
	protected.PUT("/incomes/:id", transactions.EditIncome, approver)

	protected.GET("/approvals", transactions.ListPending, approver)

	protected.POST("/settlements", ledger.Settle, approver)
	protected.GET("/settlements", ledger.SettlementHistory)

	protected.GET("/cash-counts", ledger.ListCashCounts)
	protected.POST("/cash-counts", ledger.RecordCashCount)
	protected.GET("/cash-counts/denominations", ledger.ListDenominations)
	protected.GET("/cash-counts/:id", ledger.GetCashCount)
	protected.DELETE("/cash-counts/:id", ledger.DeleteCashCount, approver)

	protected.GET("/categories", ledger.ListCategories)
	protected.POST("/categories", ledger.CreateCategory, approver)
	protected.DELETE("/categories/:id", ledger.DeleteCategory, approver)

	protected.GET("/reports/expense-by-category", ledger.ExpenseReport, approver)

	protected.GET("/invoices", invoices.ListInvoices)
	protected.POST("/invoices", invoices.RegisterInvoice)
	protected.GET("/invoices/report", invoices.InvoiceRegister)
	protected.GET("/invoices/:id", invoices.GetInvoice)
	protected.DELETE("/invoices/:id", invoices.DeleteInvoice)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config
	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "address", cfg.Address(), "environment", cfg.Server.Environment)
		if err := s.echo.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
