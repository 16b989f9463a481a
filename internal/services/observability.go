package services

import (
	"context"
	"time"

	"pettycash/internal/events"
)

// MetricsRecorderInterface records ledger metrics. Names are free-form keys
// mapped onto concrete collectors by the implementation.
type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

// EventPublisherInterface delivers ledger events to an outside consumer.
type EventPublisherInterface interface {
	Publish(ctx context.Context, event events.Event) error
}

type noopMetrics struct{}

func (noopMetrics) IncrementCounter(string, map[string]string) {}
func (noopMetrics) RecordProcessingTime(string, time.Duration) {}
func (noopMetrics) RecordGauge(string, float64, map[string]string) {}

// NewNoopMetrics returns a recorder that drops every sample.
func NewNoopMetrics() MetricsRecorderInterface {
	return noopMetrics{}
}

type correlationIDKey struct{}

// WithCorrelationID attaches an id that ledger log lines carry.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if correlationID, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return correlationID
	}

	return ""
}

// publishEvent hands a ledger event to the publisher. The publisher must not
// wait on the network; app wires an events.AsyncPublisher in front of AMQP.
// Failures are logged, never returned.
func publishEvent(ctx context.Context, publisher EventPublisherInterface, logger *LedgerLogger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.LogEventPublishFailed(ctx, string(event.Type), err.Error())
	}
}
