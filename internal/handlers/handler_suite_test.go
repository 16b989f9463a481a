package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/errors"
	"pettycash/internal/models"
	"pettycash/internal/repositories"
	"pettycash/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// handlerSuite serves requests through real services over an in-memory database.
type handlerSuite struct {
	suite.Suite
	echo *echo.Echo
	db   *database.DB
	ctx  context.Context

	transactions *services.TransactionService
	approvals    *services.ApprovalService
	balance      *services.BalanceService

	transactionHandler *TransactionHandler
	ledgerHandler      *LedgerHandler
	invoiceHandler     *InvoiceHandler

	member   *models.User
	approver *models.User
}

func (s *handlerSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.Validator = NewValidator()
	s.ctx = context.Background()
	s.db = database.SetupTestDB(s.T())
	store := repositories.NewStore(s.db.DB)

	var err error
	s.balance, err = services.NewBalanceService(store, nil, true)
	s.Require().NoError(err)
	s.T().Cleanup(s.balance.Close)

	logger := services.NewLedgerLogger(nil)
	s.transactions = services.NewTransactionService(store, s.balance, logger, nil)
	s.approvals = services.NewApprovalService(store, s.balance, logger, nil, nil)
	settlements := services.NewSettlementService(store, s.balance, logger, nil, nil)
	cashCounts := services.NewCashCountService(store, s.balance, nil, logger, nil, nil)

	s.transactionHandler = NewTransactionHandler(s.transactions, s.approvals, s.balance)
	s.invoiceHandler = NewInvoiceHandler(services.NewInvoiceService(store, logger, nil))
	s.ledgerHandler = NewLedgerHandler(settlements, cashCounts, services.NewCategoryService(store), services.NewReportService(store))

	s.member = database.CreateTestUser(s.T(), s.db, "member")
	s.approver = database.CreateTestApprover(s.T(), s.db, "manager")
}

// request builds an echo context carrying actor (nil for none) and path params.
func (s *handlerSuite) request(method, target, body string, actor models.Actor, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.Set(TraceIDContextKey, "trace-test")
	if actor != nil {
		c.Set(ActorContextKey, actor)
	}
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(append(c.ParamNames(), params[i])...)
		c.SetParamValues(append(c.ParamValues(), params[i+1])...)
	}
	return c, rec
}

func (s *handlerSuite) decodeData(rec *httptest.ResponseRecorder, out interface{}) {
	s.T().Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	s.Require().NoError(json.Unmarshal(envelope.Data, out))
}

func (s *handlerSuite) assertErrorCode(rec *httptest.ResponseRecorder, status int, code errors.ErrorCode) {
	s.T().Helper()
	s.Equal(status, rec.Code)
	var resp errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(string(code), resp.Error.Code)
	s.Equal("trace-test", resp.Error.TraceID)
}

func (s *handlerSuite) income(on time.Time, amount string) *models.Transaction {
	t, err := s.transactions.CreateIncome(s.ctx, services.CreateIncomeInput{
		TransactionDate: on,
		Description:     "top up",
		Amount:          decimal.RequireFromString(amount),
	}, s.approver)
	s.Require().NoError(err)
	return t
}

func (s *handlerSuite) expenditure(on time.Time, amount string) *models.Transaction {
	t, err := s.transactions.CreateExpenditure(s.ctx, services.CreateExpenditureInput{
		TransactionDate: on,
		Description:     "stamps",
		TaxRegime:       models.TaxRegimeTaxExempt,
		LineItems: []services.LineItemInput{
			{Name: "stamp", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString(amount)},
		},
	}, s.member)
	s.Require().NoError(err)
	return t
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
