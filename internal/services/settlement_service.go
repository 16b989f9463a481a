package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pettycash/internal/events"
	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/shopspring/decimal"
)

// SettlementService performs the month-end carry-forward.
type SettlementService struct {
	store     repositories.Store
	balance   *BalanceService
	logger    *LedgerLogger
	metrics   MetricsRecorderInterface
	publisher EventPublisherInterface
}

func NewSettlementService(store repositories.Store, balance *BalanceService, logger *LedgerLogger, metrics MetricsRecorderInterface, publisher EventPublisherInterface) *SettlementService {
	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &SettlementService{
		store:     store,
		balance:   balance,
		logger:    logger,
		metrics:   metrics,
		publisher: publisher,
	}
}

// Settle carries the month-end balance of year/month forward as an approved
// income dated the first day of the next month. Each period settles once.
func (s *SettlementService) Settle(ctx context.Context, year, month int, actor models.Actor) (*models.Transaction, error) {
	if actor == nil || !actor.IsApprover() {
		return nil, denied("settle", "approver role required")
	}
	if year < 1900 || year > 9999 {
		return nil, newValidationError("year", "must be between 1900 and 9999")
	}
	if month < 1 || month > 12 {
		return nil, newValidationError("month", "must be between 1 and 12")
	}

	period := models.SettlementPeriodKey(year, month)
	endDate := models.MonthEnd(year, month)
	nextPeriodStart := endDate.AddDate(0, 0, 1)

	var settlement *models.Transaction
	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		txRepo := tx.Transactions()

		if err := txRepo.LockSettlementPeriod(ctx, period); err != nil {
			return err
		}

		if _, err := txRepo.FindSettlement(ctx, period); err == nil {
			return ErrDuplicateSettlement
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}

		monthEndBalance, err := balanceAsOf(ctx, txRepo, endDate)
		if err != nil {
			return err
		}
		if monthEndBalance.IsNegative() {
			return &NegativeBalanceError{Balance: monthEndBalance}
		}

		settlement = newSettlement(actor, year, month, period, nextPeriodStart, monthEndBalance)
		if err := txRepo.Create(ctx, settlement); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrDuplicateSettlement
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, period, err)
		return nil, storageErr("settle", err)
	}

	duration := time.Since(start)
	s.balance.Invalidate()
	s.metrics.RecordProcessingTime("settle", duration)
	s.metrics.IncrementCounter(metricSettlement, map[string]string{"status": "success"})
	s.logger.LogSettlementCompleted(ctx, period, settlement.TotalAmount, settlement.ID, duration.Milliseconds())

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeSettlementCreated, settlement.ID, actor.ActorID()).
		WithAmount(settlement.TotalAmount.StringFixed(2)).
		WithAttr("period", period))

	return settlement, nil
}

// History lists carry-forward rows, latest first.
func (s *SettlementService) History(ctx context.Context) ([]models.Transaction, error) {
	settlements, err := s.store.Transactions().ListSettlements(ctx)
	if err != nil {
		return nil, storageErr("list settlements", err)
	}
	return settlements, nil
}

func newSettlement(actor models.Actor, year, month int, period string, date time.Time, amount decimal.Decimal) *models.Transaction {
	approverID := actor.ActorID()
	approvedAt := time.Now().UTC()

	settlement := &models.Transaction{
		Type:             models.TransactionTypeIncome,
		TaxRegime:        models.TaxRegimeTaxExempt,
		ApplicationDate:  today(),
		TransactionDate:  date,
		ApplicantID:      actor.ActorID(),
		Description:      models.SettlementLabel(actor.ActorName(), year, month),
		Status:           models.StatusApproved,
		ApproverID:       &approverID,
		ApprovedAt:       &approvedAt,
		IsSettlement:     true,
		SettlementPeriod: &period,
	}
	settlement.ApplyAmounts(amount, decimal.Zero)
	return settlement
}

func (s *SettlementService) recordFailure(ctx context.Context, period string, err error) {
	status := "failed"
	switch {
	case errors.Is(err, ErrDuplicateSettlement):
		status = "duplicate"
	case errors.Is(err, ErrNegativeBalance):
		status = "negative_balance"
	}
	s.metrics.IncrementCounter(metricSettlement, map[string]string{"status": status})
	s.logger.LogSettlementFailed(ctx, period, fmt.Sprintf("%s: %v", status, err))
}
