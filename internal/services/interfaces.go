package services

import (
	"context"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionServiceInterface defines ledger transaction operations
type TransactionServiceInterface interface {
	CreateExpenditure(ctx context.Context, input CreateExpenditureInput, actor models.Actor) (*models.Transaction, error)
	EditExpenditure(ctx context.Context, id uuid.UUID, input EditExpenditureInput, actor models.Actor) (*models.Transaction, error)
	CreateIncome(ctx context.Context, input CreateIncomeInput, actor models.Actor) (*models.Transaction, error)
	EditIncome(ctx context.Context, id uuid.UUID, input EditIncomeInput, actor models.Actor) (*models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error)
}

// ApprovalServiceInterface defines the approval workflow
type ApprovalServiceInterface interface {
	Submit(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error)
	Approve(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error)
	Reject(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Transaction, error)
	ListPending(ctx context.Context, actor models.Actor, offset, limit int) ([]models.Transaction, int64, error)
}

// BalanceServiceInterface derives balances from the ledger
type BalanceServiceInterface interface {
	CurrentBalance(ctx context.Context) (decimal.Decimal, error)
	BalanceAsOf(ctx context.Context, cutoff time.Time) (decimal.Decimal, error)
}

// SettlementServiceInterface performs month-end carry-forward
type SettlementServiceInterface interface {
	Settle(ctx context.Context, year, month int, actor models.Actor) (*models.Transaction, error)
	History(ctx context.Context) ([]models.Transaction, error)
}

// CashCountServiceInterface records and reads cash count sessions
type CashCountServiceInterface interface {
	Record(ctx context.Context, counts map[int]int, actor models.Actor) (*models.CashCountSession, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CashCountSession, error)
	List(ctx context.Context, offset, limit int) ([]models.CashCountSession, int64, error)
	Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error
	Denominations() []int
}

// CategoryServiceInterface manages expense categories
type CategoryServiceInterface interface {
	Create(ctx context.Context, name string, actor models.Actor) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error
}

// ReportServiceInterface builds ledger reports
type ReportServiceInterface interface {
	ExpenseByCategory(ctx context.Context, year, month int, actor models.Actor) (*ExpenseReport, error)
}

// InvoiceServiceInterface keeps the purchase invoice register
type InvoiceServiceInterface interface {
	Register(ctx context.Context, input RegisterInvoiceInput, actor models.Actor) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, filters models.InvoiceFilters) ([]models.Invoice, int64, error)
	Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error
	MonthlyRegister(ctx context.Context, year, month int) (*InvoiceRegister, error)
}

// AuthServiceInterface handles login and user registration
type AuthServiceInterface interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*models.User, error)
	Login(ctx context.Context, username, password string, rememberMe bool) (*LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	PruneRevokedTokens(ctx context.Context) (int64, error)
	IssueToken(ctx context.Context, username string) (*LoginResult, error)
	FindUser(ctx context.Context, username string) (*models.User, error)
}

// TokenServiceInterface verifies access tokens
type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
}

var (
	_ TransactionServiceInterface = (*TransactionService)(nil)
	_ ApprovalServiceInterface    = (*ApprovalService)(nil)
	_ BalanceServiceInterface     = (*BalanceService)(nil)
	_ SettlementServiceInterface  = (*SettlementService)(nil)
	_ CashCountServiceInterface   = (*CashCountService)(nil)
	_ CategoryServiceInterface    = (*CategoryService)(nil)
	_ ReportServiceInterface      = (*ReportService)(nil)
	_ InvoiceServiceInterface     = (*InvoiceService)(nil)
	_ AuthServiceInterface        = (*AuthService)(nil)
	_ TokenServiceInterface       = (*TokenService)(nil)
)
