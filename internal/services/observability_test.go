package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"pettycash/internal/database"
	"pettycash/internal/events"
	"pettycash/internal/models"
	"pettycash/internal/repositories"
	"pettycash/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ObservabilityTestSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	db        *database.DB
	metrics   *service_mocks.MockMetricsRecorderInterface
	publisher *service_mocks.MockEventPublisherInterface
	logs      *bytes.Buffer

	balance      *BalanceService
	transactions *TransactionService
	approvals    *ApprovalService
	settlements  *SettlementService
	cashCounts   *CashCountService

	member   *models.User
	approver *models.User
}

func TestObservabilitySuite(t *testing.T) {
	suite.Run(t, new(ObservabilityTestSuite))
}

func (s *ObservabilityTestSuite) SetupTest() {
	s.ctx = WithCorrelationID(context.Background(), "req-42")
	s.ctrl = gomock.NewController(s.T())
	s.db = database.SetupTestDB(s.T())
	s.metrics = service_mocks.NewMockMetricsRecorderInterface(s.ctrl)
	s.publisher = service_mocks.NewMockEventPublisherInterface(s.ctrl)
	s.logs = &bytes.Buffer{}

	store := repositories.NewStore(s.db.DB)
	logger := NewLedgerLogger(slog.New(slog.NewJSONHandler(s.logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	var err error
	s.balance, err = NewBalanceService(store, s.metrics, false)
	s.Require().NoError(err)
	s.transactions = NewTransactionService(store, s.balance, logger, s.metrics)
	s.approvals = NewApprovalService(store, s.balance, logger, s.metrics, s.publisher)
	s.settlements = NewSettlementService(store, s.balance, logger, s.metrics, s.publisher)
	s.cashCounts = NewCashCountService(store, s.balance, nil, logger, s.metrics, s.publisher)

	s.member = database.CreateTestUser(s.T(), s.db, "member")
	s.approver = database.CreateTestApprover(s.T(), s.db, "manager")
}

func (s *ObservabilityTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

// allowOtherMetrics accepts every sample not matched by an earlier expectation.
func (s *ObservabilityTestSuite) allowOtherMetrics() {
	s.metrics.EXPECT().IncrementCounter(gomock.Any(), gomock.Any()).AnyTimes()
	s.metrics.EXPECT().RecordProcessingTime(gomock.Any(), gomock.Any()).AnyTimes()
	s.metrics.EXPECT().RecordGauge(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
}

func (s *ObservabilityTestSuite) logLines() []map[string]any {
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(s.logs.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		s.Require().NoError(json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func (s *ObservabilityTestSuite) findLog(eventType string) map[string]any {
	for _, line := range s.logLines() {
		if line["event_type"] == eventType {
			return line
		}
	}
	s.Failf("log line not found", "event_type %s", eventType)
	return nil
}

func (s *ObservabilityTestSuite) TestApprovalPublishesEvents() {
	s.allowOtherMetrics()

	t, err := s.transactions.CreateExpenditure(s.ctx, CreateExpenditureInput{
		TransactionDate: date(2025, 5, 1),
		Description:     "taxi",
		TaxRegime:       models.TaxRegimeTaxExempt,
		LineItems:       []LineItemInput{item("ride", "1", "42")},
	}, s.member)
	s.Require().NoError(err)

	gomock.InOrder(
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
			s.Equal(events.TypeTransactionSubmitted, e.Type)
			s.Equal(t.ID, e.EntityID)
			s.Equal(s.member.ID, e.ActorID)
			s.Equal("draft", e.Attrs["previous_status"])
			return nil
		}),
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
			s.Equal(events.TypeTransactionApproved, e.Type)
			s.Equal(s.approver.ID, e.ActorID)
			s.Equal("-42.00", e.Amount)
			return nil
		}),
	)

	_, err = s.approvals.Submit(s.ctx, t.ID, s.member)
	s.Require().NoError(err)
	_, err = s.approvals.Approve(s.ctx, t.ID, s.approver)
	s.Require().NoError(err)

	line := s.findLog("transaction_state_change")
	s.Equal("req-42", line["correlation_id"])
}

func (s *ObservabilityTestSuite) TestSettlementSurvivesPublishFailure() {
	s.metrics.EXPECT().IncrementCounter(metricSettlement, map[string]string{"status": "success"})
	s.metrics.EXPECT().RecordProcessingTime("settle", gomock.Any())
	s.allowOtherMetrics()

	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		s.Equal(events.TypeSettlementCreated, e.Type)
		s.Equal("2025-05", e.Attrs["period"])
		return errors.New("broker unavailable")
	})

	settlement, err := s.settlements.Settle(s.ctx, 2025, 5, s.approver)
	s.Require().NoError(err)
	s.NotNil(settlement)

	line := s.findLog("event_publish_failed")
	s.Equal(string(events.TypeSettlementCreated), line["ledger_event"])
	s.Equal("req-42", line["correlation_id"])
}

func (s *ObservabilityTestSuite) TestSettlementFailureCountedByCause() {
	s.metrics.EXPECT().IncrementCounter(metricSettlement, map[string]string{"status": "negative_balance"})
	s.allowOtherMetrics()

	_, err := s.transactions.CreateExpenditure(s.ctx, CreateExpenditureInput{
		TransactionDate: date(2025, 5, 1),
		Description:     "taxi",
		TaxRegime:       models.TaxRegimeTaxExempt,
		LineItems:       []LineItemInput{item("ride", "1", "42")},
	}, s.member)
	s.Require().NoError(err)

	_, err = s.settlements.Settle(s.ctx, 2025, 5, s.approver)
	s.ErrorIs(err, ErrNegativeBalance)

	s.findLog("settlement_failed")
}

func (s *ObservabilityTestSuite) TestCashCountMetrics() {
	s.metrics.EXPECT().IncrementCounter(metricCashCount, map[string]string{"balanced": "false"})
	s.metrics.EXPECT().RecordGauge(metricCashCountDiff, float64(10), gomock.Any())
	s.allowOtherMetrics()
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	session, err := s.cashCounts.Record(s.ctx, map[int]int{10: 1}, s.member)
	s.Require().NoError(err)
	s.False(session.IsBalanced())

	line := s.findLog("cash_count_recorded")
	s.Equal("WARN", line["level"])
}

func TestPublishEvent_NilPublisher(t *testing.T) {
	publishEvent(context.Background(), nil, NewLedgerLogger(nil), events.Event{})
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
	assert.Equal(t, "abc", CorrelationID(WithCorrelationID(context.Background(), "abc")))
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, ok := NewPrometheusMetrics(reg).(*PrometheusMetrics)
	require.True(t, ok)

	m.IncrementCounter(metricTransactionEvent, map[string]string{"type": "expenditure", "event": "created"})
	m.IncrementCounter(metricTransactionEvent, map[string]string{"type": "expenditure", "event": "created"})
	m.IncrementCounter(metricSettlement, map[string]string{"status": "success"})
	m.IncrementCounter(metricSettlement, map[string]string{})
	m.IncrementCounter(metricBalanceCache, map[string]string{"result": "hit"})
	m.IncrementCounter(metricAuthentication, map[string]string{"event_type": "login_failed"})
	m.IncrementCounter(metricInvoice, map[string]string{"type": "electronic", "event": "registered"})
	m.IncrementCounter("unknown", nil)
	m.RecordGauge(metricCurrentBalance, 1234.5, nil)
	m.RecordGauge(metricCashCountDiff, -3, nil)
	m.RecordProcessingTime("settle", 7*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.transactionEvents.WithLabelValues("expenditure", "created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.settlementsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.balanceCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.authenticationEventsTotal.WithLabelValues("login_failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.invoicesTotal.WithLabelValues("electronic", "registered")))
	assert.Equal(t, 1234.5, testutil.ToFloat64(m.currentBalance))
	assert.Equal(t, float64(-3), testutil.ToFloat64(m.cashCountDifference))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.settlementsTotal))
}
