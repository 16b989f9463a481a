package services

import (
	"context"
	"strings"
	"time"

	"pettycash/internal/events"
	"pettycash/internal/models"
	"pettycash/internal/repositories"

	"github.com/google/uuid"
)

// ApprovalService moves expenditures through Draft, Pending, Approved and Rejected.
type ApprovalService struct {
	store     repositories.Store
	balance   *BalanceService
	logger    *LedgerLogger
	metrics   MetricsRecorderInterface
	publisher EventPublisherInterface
}

func NewApprovalService(store repositories.Store, balance *BalanceService, logger *LedgerLogger, metrics MetricsRecorderInterface, publisher EventPublisherInterface) *ApprovalService {
	if logger == nil {
		logger = NewLedgerLogger(nil)
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &ApprovalService{
		store:     store,
		balance:   balance,
		logger:    logger,
		metrics:   metrics,
		publisher: publisher,
	}
}

// Submit sends a Draft or Rejected transaction for approval.
func (s *ApprovalService) Submit(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	return s.transition(ctx, "submit", id, actor, models.StatusPending, func(t *models.Transaction) error {
		if !isApplicantOrApprover(t, actor) {
			return denied("submit", "only the applicant or an approver may submit")
		}
		t.ApproverID = nil
		t.ApprovedAt = nil
		t.RejectionReason = ""
		return nil
	})
}

// Approve accepts a Pending transaction.
func (s *ApprovalService) Approve(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	return s.transition(ctx, "approve", id, actor, models.StatusApproved, func(t *models.Transaction) error {
		if !actor.IsApprover() {
			return denied("approve", "approver role required")
		}
		stampApproval(t, actor)
		return nil
	})
}

// Reject returns a Pending transaction to its applicant with a reason.
func (s *ApprovalService) Reject(ctx context.Context, id uuid.UUID, actor models.Actor, reason string) (*models.Transaction, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, "reject", id, actor, models.StatusRejected, func(t *models.Transaction) error {
		if !actor.IsApprover() {
			return denied("reject", "approver role required")
		}
		if reason == "" {
			return denied("reject", "a rejection reason is required")
		}
		stampApproval(t, actor)
		t.RejectionReason = reason
		return nil
	})
}

// ListPending returns the approval queue, oldest application first.
func (s *ApprovalService) ListPending(ctx context.Context, actor models.Actor, offset, limit int) ([]models.Transaction, int64, error) {
	if actor == nil || !actor.IsApprover() {
		return nil, 0, denied("list pending", "approver role required")
	}

	transactions, total, err := s.store.Transactions().ListPending(ctx, offset, limit)
	if err != nil {
		return nil, 0, storageErr("list pending", err)
	}
	return transactions, total, nil
}

func stampApproval(t *models.Transaction, actor models.Actor) {
	approverID := actor.ActorID()
	approvedAt := time.Now().UTC()
	t.ApproverID = &approverID
	t.ApprovedAt = &approvedAt
}

// transition loads the transaction, checks the state table and the guard,
// then persists the new status. A failed check changes nothing.
func (s *ApprovalService) transition(ctx context.Context, action string, id uuid.UUID, actor models.Actor, next models.ApprovalStatus, guard func(*models.Transaction) error) (*models.Transaction, error) {
	if actor == nil {
		return nil, denied(action, "no actor")
	}

	var (
		transaction *models.Transaction
		previous    models.ApprovalStatus
	)
	start := time.Now()
	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		var err error
		transaction, err = tx.Transactions().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if transaction.IsSettlement || !transaction.IsExpenditure() {
			return denied(action, "only expenditures go through approval")
		}

		previous = transaction.Status
		if !previous.CanTransitionTo(next) {
			s.logger.LogPolicyDenied(ctx, action, id, actor, "status "+string(previous))
			return denied(action, "transaction is "+string(previous))
		}
		if err := guard(transaction); err != nil {
			s.logger.LogPolicyDenied(ctx, action, id, actor, err.Error())
			return err
		}

		transaction.Status = next
		return tx.Transactions().Update(ctx, transaction)
	})
	if err != nil {
		return nil, storageErr(action, err)
	}

	s.balance.Invalidate()
	s.metrics.RecordProcessingTime(action, time.Since(start))
	s.metrics.IncrementCounter(metricTransactionEvent, map[string]string{
		"type":  string(transaction.Type),
		"event": string(next),
	})
	s.logger.LogTransactionStateChange(ctx, id, previous, next, actor)

	publishEvent(ctx, s.publisher, s.logger, events.New(transitionEvent(next), id, actor.ActorID()).
		WithAmount(transaction.TotalAmount.StringFixed(2)).
		WithAttr("previous_status", string(previous)))

	return transaction, nil
}

func transitionEvent(status models.ApprovalStatus) events.Type {
	switch status {
	case models.StatusApproved:
		return events.TypeTransactionApproved
	case models.StatusRejected:
		return events.TypeTransactionRejected
	default:
		return events.TypeTransactionSubmitted
	}
}
