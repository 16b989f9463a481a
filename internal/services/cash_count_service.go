package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"pettycash/internal/events"
	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
)

// CashCountService reconciles physical counts against the book balance.
type CashCountService struct {
	store         repositories.Store
	balance       *BalanceService
	denominations []int
	logger        *LedgerLogger
	metrics       MetricsRecorderInterface
	publisher     EventPublisherInterface
}

// NewCashCountService creates the service. An empty denominations list falls
// back to models.DefaultDenominations.
func NewCashCountService(store repositories.Store, balance *BalanceService, denominations []int, logger *LedgerLogger, metrics MetricsRecorderInterface, publisher EventPublisherInterface) *CashCountService {
	if len(denominations) == 0 {
		denominations = models.DefaultDenominations
	}
	sorted := append([]int(nil), denominations...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &CashCountService{
		store:         store,
		balance:       balance,
		denominations: sorted,
		logger:        logger,
		metrics:       metrics,
		publisher:     publisher,
	}
}

// Denominations returns the accepted face values, largest first.
func (s *CashCountService) Denominations() []int {
	return append([]int(nil), s.denominations...)
}

// Record saves a count keyed by face value. Zero counts are skipped.
func (s *CashCountService) Record(ctx context.Context, counts map[int]int, actor models.Actor) (*models.CashCountSession, error) {
	if actor == nil {
		return nil, denied("record cash count", "no actor")
	}
	if err := s.validateCounts(counts); err != nil {
		return nil, err
	}

	systemBalance, err := s.balance.CurrentBalance(ctx)
	if err != nil {
		return nil, err
	}

	session := models.NewCashCountSession(counts, s.denominations, systemBalance, actor.ActorID(), time.Now().UTC())

	start := time.Now()
	if err := s.store.CashCounts().Create(ctx, session); err != nil {
		return nil, storageErr("record cash count", err)
	}

	s.metrics.RecordProcessingTime("record_cash_count", time.Since(start))
	s.metrics.IncrementCounter(metricCashCount, map[string]string{"balanced": strconv.FormatBool(session.IsBalanced())})
	difference, _ := session.Difference.Float64()
	s.metrics.RecordGauge(metricCashCountDiff, difference, nil)
	s.logger.LogCashCountRecorded(ctx, session)

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeCashCountRecorded, session.ID, actor.ActorID()).
		WithAmount(session.CountedTotal.StringFixed(2)).
		WithAttr("difference", session.Difference.StringFixed(2)))

	return session, nil
}

func (s *CashCountService) validateCounts(counts map[int]int) error {
	accepted := make(map[int]bool, len(s.denominations))
	for _, face := range s.denominations {
		accepted[face] = true
	}

	fields := map[string]string{}
	counted := false
	for face, count := range counts {
		key := fmt.Sprintf("counts[%d]", face)
		if !accepted[face] {
			fields[key] = "unknown denomination"
			continue
		}
		if count < 0 {
			fields[key] = "must not be negative"
		}
		if count > 0 {
			counted = true
		}
	}
	if !counted && len(fields) == 0 {
		fields["counts"] = "at least one denomination must have a positive count"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *CashCountService) Get(ctx context.Context, id uuid.UUID) (*models.CashCountSession, error) {
	session, err := s.store.CashCounts().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get cash count", err)
	}
	return session, nil
}

// List returns sessions newest first with the total count.
func (s *CashCountService) List(ctx context.Context, offset, limit int) ([]models.CashCountSession, int64, error) {
	sessions, total, err := s.store.CashCounts().List(ctx, offset, limit)
	if err != nil {
		return nil, 0, storageErr("list cash counts", err)
	}
	return sessions, total, nil
}

// Delete removes a session and its lines. Approver only.
func (s *CashCountService) Delete(ctx context.Context, id uuid.UUID, actor models.Actor) error {
	if actor == nil || !actor.IsApprover() {
		return denied("delete cash count", "approver role required")
	}
	if err := s.store.CashCounts().Delete(ctx, id); err != nil {
		return storageErr("delete cash count", err)
	}
	return nil
}
