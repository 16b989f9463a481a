package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric keys understood by PrometheusMetrics.
const (
	metricTransactionEvent = "ledger.transaction"
	metricSettlement       = "ledger.settlement"
	metricCashCount        = "ledger.cash_count"
	metricBalanceCache     = "ledger.balance_cache"
	metricAuthentication   = "authentication_event"
	metricCurrentBalance   = "ledger.balance"
	metricCashCountDiff    = "ledger.cash_count.difference"
	metricInvoice          = "ledger.invoice"
)

type PrometheusMetrics struct {
	transactionEvents         *prometheus.CounterVec
	settlementsTotal          *prometheus.CounterVec
	cashCountsTotal           *prometheus.CounterVec
	invoicesTotal             *prometheus.CounterVec
	balanceCacheLookups       *prometheus.CounterVec
	authenticationEventsTotal *prometheus.CounterVec
	currentBalance            prometheus.Gauge
	cashCountDifference       prometheus.Gauge
	operationDuration         *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the ledger collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		transactionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Ledger transaction lifecycle events by type and event",
			},
			[]string{"type", "event"},
		),
		settlementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_settlements_total",
				Help: "Month-end settlement attempts by outcome",
			},
			[]string{"status"},
		),
		cashCountsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cash_counts_total",
				Help: "Recorded cash count sessions by whether they matched the books",
			},
			[]string{"balanced"},
		),
		invoicesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_invoices_total",
				Help: "Invoice register changes by invoice type and event",
			},
			[]string{"type", "event"},
		),
		balanceCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_balance_cache_lookups_total",
				Help: "Current balance cache lookups by result",
			},
			[]string{"result"},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
		currentBalance: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_current_balance",
				Help: "Last computed petty cash balance in currency units",
			},
		),
		cashCountDifference: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_cash_count_difference",
				Help: "Counted minus book balance of the latest cash count",
			},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_milliseconds",
				Help:    "Ledger write operation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case metricTransactionEvent:
		m.transactionEvents.WithLabelValues(tags["type"], tags["event"]).Inc()
	case metricSettlement:
		if status := tags["status"]; status != "" {
			m.settlementsTotal.WithLabelValues(status).Inc()
		}
	case metricCashCount:
		m.cashCountsTotal.WithLabelValues(tags["balanced"]).Inc()
	case metricInvoice:
		m.invoicesTotal.WithLabelValues(tags["type"], tags["event"]).Inc()
	case metricBalanceCache:
		if result := tags["result"]; result != "" {
			m.balanceCacheLookups.WithLabelValues(result).Inc()
		}
	case metricAuthentication:
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	m.operationDuration.WithLabelValues(name).Observe(float64(duration.Milliseconds()))
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case metricCurrentBalance:
		m.currentBalance.Set(value)
	case metricCashCountDiff:
		m.cashCountDifference.Set(value)
	}
}
