package services

import (
	"context"
	"log/slog"
	"time"

	"pettycash/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerLogger writes one structured line per ledger state change. Nothing is
// persisted; the lines are operational logging only.
type LedgerLogger struct {
	logger *slog.Logger
}

func NewLedgerLogger(logger *slog.Logger) *LedgerLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerLogger{
		logger: logger,
	}
}

func (l *LedgerLogger) LogTransactionCreated(ctx context.Context, t *models.Transaction, actor models.Actor) {
	l.logger.InfoContext(ctx, "transaction created",
		slog.String("event_type", "transaction_created"),
		slog.String("transaction_id", t.ID.String()),
		slog.String("type", string(t.Type)),
		slog.String("status", string(t.Status)),
		slog.String("total_amount", t.TotalAmount.StringFixed(2)),
		slog.String("actor_id", actor.ActorID().String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogTransactionEdited(ctx context.Context, t *models.Transaction, actor models.Actor) {
	l.logger.InfoContext(ctx, "transaction edited",
		slog.String("event_type", "transaction_edited"),
		slog.String("transaction_id", t.ID.String()),
		slog.String("total_amount", t.TotalAmount.StringFixed(2)),
		slog.String("actor_id", actor.ActorID().String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogTransactionDeleted(ctx context.Context, transactionID uuid.UUID, actor models.Actor) {
	l.logger.InfoContext(ctx, "transaction deleted",
		slog.String("event_type", "transaction_deleted"),
		slog.String("transaction_id", transactionID.String()),
		slog.String("actor_id", actor.ActorID().String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogTransactionStateChange(ctx context.Context, transactionID uuid.UUID, oldStatus, newStatus models.ApprovalStatus, actor models.Actor) {
	l.logger.InfoContext(ctx, "transaction state change",
		slog.String("event_type", "transaction_state_change"),
		slog.String("transaction_id", transactionID.String()),
		slog.String("old_status", string(oldStatus)),
		slog.String("new_status", string(newStatus)),
		slog.String("actor_id", actor.ActorID().String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogPolicyDenied(ctx context.Context, action string, transactionID uuid.UUID, actor models.Actor, reason string) {
	l.logger.WarnContext(ctx, "ledger action denied",
		slog.String("event_type", "policy_denied"),
		slog.String("action", action),
		slog.String("transaction_id", transactionID.String()),
		slog.String("actor_id", actor.ActorID().String()),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogSettlementCompleted(ctx context.Context, period string, amount decimal.Decimal, transactionID uuid.UUID, durationMs int64) {
	l.logger.InfoContext(ctx, "settlement completed",
		slog.String("event_type", "settlement_completed"),
		slog.String("period", period),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("transaction_id", transactionID.String()),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogSettlementFailed(ctx context.Context, period string, errorMsg string) {
	l.logger.WarnContext(ctx, "settlement failed",
		slog.String("event_type", "settlement_failed"),
		slog.String("period", period),
		slog.String("error", errorMsg),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogCashCountRecorded(ctx context.Context, session *models.CashCountSession) {
	attrs := []slog.Attr{
		slog.String("event_type", "cash_count_recorded"),
		slog.String("session_id", session.ID.String()),
		slog.String("counted_total", session.CountedTotal.StringFixed(2)),
		slog.String("system_balance", session.SystemBalance.StringFixed(2)),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	}

	level := slog.LevelInfo
	if !session.IsBalanced() {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("difference", session.Difference.StringFixed(2)))
	}

	l.logger.LogAttrs(ctx, level, "cash count recorded", attrs...)
}

func (l *LedgerLogger) LogEventPublishFailed(ctx context.Context, eventType string, errorMsg string) {
	l.logger.WarnContext(ctx, "ledger event publish failed",
		slog.String("event_type", "event_publish_failed"),
		slog.String("ledger_event", eventType),
		slog.String("error", errorMsg),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogAuthentication(ctx context.Context, username string, success bool, reason string) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "authentication attempt",
		slog.String("event_type", "authentication"),
		slog.String("username", username),
		slog.Bool("success", success),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

func (l *LedgerLogger) LogInvoiceRegistered(ctx context.Context, invoice *models.Invoice, actor models.Actor) {
	attrs := []slog.Attr{
		slog.String("event_type", "invoice_registered"),
		slog.String("invoice_id", invoice.ID.String()),
		slog.String("invoice_type", string(invoice.Type)),
		slog.String("number", invoice.FullNumber()),
		slog.String("total_amount", invoice.TotalAmount.StringFixed(2)),
		slog.String("actor_id", actor.ActorID().String()),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	if invoice.TransactionID != nil {
		attrs = append(attrs, slog.String("transaction_id", invoice.TransactionID.String()))
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "invoice registered", attrs...)
}

func (l *LedgerLogger) LogTokenRevoked(ctx context.Context, userID uuid.UUID, jti string, expiresAt time.Time) {
	l.logger.InfoContext(ctx, "access token revoked",
		slog.String("event_type", "token_revoked"),
		slog.String("user_id", userID.String()),
		slog.String("jti", jti),
		slog.Time("expires_at", expiresAt),
		slog.String("correlation_id", CorrelationID(ctx)),
	)
}

// LogPanicRecovered records a request that panicked inside a handler.
func (l *LedgerLogger) LogPanicRecovered(ctx context.Context, method, route string, actorID uuid.UUID, recovered string, stack []byte) {
	attrs := []slog.Attr{
		slog.String("event_type", "panic_recovered"),
		slog.String("method", method),
		slog.String("route", route),
		slog.String("panic", recovered),
		slog.String("stack_trace", string(stack)),
		slog.String("correlation_id", CorrelationID(ctx)),
	}
	if actorID != uuid.Nil {
		attrs = append(attrs, slog.String("actor_id", actorID.String()))
	}
	l.logger.LogAttrs(ctx, slog.LevelError, "handler panic recovered", attrs...)
}
