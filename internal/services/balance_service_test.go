package services

import (
	"testing"

	"pettycash/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type BalanceServiceTestSuite struct {
	ledgerSuite
}

func TestBalanceServiceSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}

func (s *BalanceServiceTestSuite) TestEmptyLedger() {
	s.assertDecimal("0", s.currentBalance())
}

func (s *BalanceServiceTestSuite) TestCountsEveryStatus() {
	draft := s.spend(date(2025, 3, 1), "10")
	pending := s.spend(date(2025, 3, 2), "20")
	_, err := s.approvals.Submit(s.ctx, pending.ID, s.member)
	s.Require().NoError(err)
	rejected := s.spend(date(2025, 3, 3), "30")
	_, err = s.approvals.Submit(s.ctx, rejected.ID, s.member)
	s.Require().NoError(err)
	_, err = s.approvals.Reject(s.ctx, rejected.ID, s.approver, "no receipt")
	s.Require().NoError(err)

	s.NotNil(draft)
	s.assertDecimal("-60", s.currentBalance())
}

func (s *BalanceServiceTestSuite) TestCacheFollowsWrites() {
	s.receive(date(2025, 3, 1), "100")
	s.assertDecimal("100", s.currentBalance())
	s.assertDecimal("100", s.currentBalance())

	spent := s.spend(date(2025, 3, 2), "40")
	s.assertDecimal("60", s.currentBalance())

	s.Require().NoError(s.transactions.Delete(s.ctx, spent.ID, s.member))
	s.assertDecimal("100", s.currentBalance())
}

func (s *BalanceServiceTestSuite) TestCacheSeesWritesFromAnotherProcess() {
	s.receive(date(2025, 3, 1), "1000")
	s.assertDecimal("1000", s.currentBalance())

	// a second engine over the same database stands in for a CLI process
	otherBalance, err := NewBalanceService(s.store, nil, true)
	s.Require().NoError(err)
	defer otherBalance.Close()
	otherTransactions := NewTransactionService(s.store, otherBalance, NewLedgerLogger(nil), nil)
	otherSettlements := NewSettlementService(s.store, otherBalance, NewLedgerLogger(nil), nil, nil)

	_, err = otherTransactions.CreateIncome(s.ctx, CreateIncomeInput{
		TransactionDate: date(2025, 3, 5),
		Description:     "top up",
		Amount:          dec("500"),
	}, s.approver)
	s.Require().NoError(err)

	s.assertDecimal("1500", s.currentBalance())
	s.True(s.fullHistory().Equal(s.currentBalance()))

	_, err = otherSettlements.Settle(s.ctx, 2025, 3, s.approver)
	s.Require().NoError(err)
	s.spend(date(2025, 4, 2), "200")
	s.assertDecimal("1300", s.currentBalance())

	session, err := s.cashCounts.Record(s.ctx, map[int]int{1000: 1, 100: 3}, s.member)
	s.Require().NoError(err)
	s.assertDecimal("1300", session.SystemBalance)
	s.assertDecimal("0", session.Difference)
}

func (s *BalanceServiceTestSuite) TestCacheServesRepeatedReads() {
	ctrl := gomock.NewController(s.T())
	metrics := service_mocks.NewMockMetricsRecorderInterface(ctrl)
	metrics.EXPECT().RecordGauge(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	gomock.InOrder(
		metrics.EXPECT().IncrementCounter(metricBalanceCache, map[string]string{"result": "miss"}),
		metrics.EXPECT().IncrementCounter(metricBalanceCache, map[string]string{"result": "hit"}),
	)

	cached, err := NewBalanceService(s.store, metrics, true)
	s.Require().NoError(err)
	defer cached.Close()

	s.receive(date(2025, 3, 1), "80")
	for i := 0; i < 2; i++ {
		balance, err := cached.CurrentBalance(s.ctx)
		s.Require().NoError(err)
		s.assertDecimal("80", balance)
	}
}

func (s *BalanceServiceTestSuite) TestCacheDisabled() {
	uncached, err := NewBalanceService(s.store, nil, false)
	s.Require().NoError(err)
	defer uncached.Close()

	s.receive(date(2025, 3, 1), "75")
	balance, err := uncached.CurrentBalance(s.ctx)
	s.Require().NoError(err)
	s.assertDecimal("75", balance)

	// writes through another service are visible without invalidation
	s.spend(date(2025, 3, 2), "5")
	balance, err = uncached.CurrentBalance(s.ctx)
	s.Require().NoError(err)
	s.assertDecimal("70", balance)
}

func (s *BalanceServiceTestSuite) TestBalanceAsOfExcludesSettlements() {
	s.receive(date(2025, 1, 10), "500")
	_, err := s.settlements.Settle(s.ctx, 2025, 1, s.approver)
	s.Require().NoError(err)
	s.spend(date(2025, 2, 5), "50")

	asOf, err := s.balance.BalanceAsOf(s.ctx, date(2025, 2, 28))
	s.Require().NoError(err)
	s.assertDecimal("450", asOf)

	before, err := s.balance.BalanceAsOf(s.ctx, date(2024, 12, 31))
	s.Require().NoError(err)
	s.assertDecimal("0", before)
}

func TestBalanceService_NilInvalidate(t *testing.T) {
	var s *BalanceService
	s.Invalidate()
	s.Close()
}
