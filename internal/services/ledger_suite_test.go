package services

import (
	"context"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// ledgerSuite wires every ledger service over one in-memory database.
type ledgerSuite struct {
	suite.Suite
	ctx context.Context
	db  *database.DB

	store        repositories.Store
	balance      *BalanceService
	transactions *TransactionService
	approvals    *ApprovalService
	settlements  *SettlementService
	cashCounts   *CashCountService
	categories   *CategoryService
	reports      *ReportService
	invoices     *InvoiceService

	member   *models.User
	other    *models.User
	approver *models.User
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = database.SetupTestDB(s.T())
	s.store = repositories.NewStore(s.db.DB)

	var err error
	s.balance, err = NewBalanceService(s.store, nil, true)
	s.Require().NoError(err)
	s.T().Cleanup(s.balance.Close)

	logger := NewLedgerLogger(nil)
	s.transactions = NewTransactionService(s.store, s.balance, logger, nil)
	s.approvals = NewApprovalService(s.store, s.balance, logger, nil, nil)
	s.settlements = NewSettlementService(s.store, s.balance, logger, nil, nil)
	s.cashCounts = NewCashCountService(s.store, s.balance, nil, logger, nil, nil)
	s.categories = NewCategoryService(s.store)
	s.reports = NewReportService(s.store)
	s.invoices = NewInvoiceService(s.store, logger, nil)

	s.member = database.CreateTestUser(s.T(), s.db, "member")
	s.other = database.CreateTestUser(s.T(), s.db, "other")
	s.approver = database.CreateTestApprover(s.T(), s.db, "manager")
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (s *ledgerSuite) expenditureInput(on time.Time, items ...LineItemInput) CreateExpenditureInput {
	return CreateExpenditureInput{
		TransactionDate: on,
		Description:     "office supplies",
		TaxRegime:       models.TaxRegimeTaxExempt,
		LineItems:       items,
	}
}

func item(name, quantity, unitPrice string) LineItemInput {
	return LineItemInput{Name: name, Quantity: dec(quantity), Unit: "pcs", UnitPrice: dec(unitPrice)}
}

// spend records a tax-exempt single-line expenditure by the member.
func (s *ledgerSuite) spend(on time.Time, amount string) *models.Transaction {
	t, err := s.transactions.CreateExpenditure(s.ctx, s.expenditureInput(on, item("misc", "1", amount)), s.member)
	s.Require().NoError(err)
	return t
}

func (s *ledgerSuite) receive(on time.Time, amount string) *models.Transaction {
	t, err := s.transactions.CreateIncome(s.ctx, CreateIncomeInput{
		TransactionDate: on,
		Description:     "top up",
		Amount:          dec(amount),
	}, s.approver)
	s.Require().NoError(err)
	return t
}

// fullHistory sums every non-settlement row without the checkpoint shortcut.
func (s *ledgerSuite) fullHistory() decimal.Decimal {
	var rows []models.Transaction
	s.Require().NoError(s.db.Where("is_settlement = ?", false).Find(&rows).Error)

	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.TotalAmount)
	}
	return sum
}

func (s *ledgerSuite) currentBalance() decimal.Decimal {
	balance, err := s.balance.CurrentBalance(s.ctx)
	s.Require().NoError(err)
	return balance
}

func (s *ledgerSuite) assertDecimal(expected string, actual decimal.Decimal) {
	s.T().Helper()
	s.True(dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
