package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "miabot"

// LedgerMetrics are the business counters of the ledger.
// All metrics carry a tenant_id label.
type LedgerMetrics struct {
	InvoicesCreated     *prometheus.CounterVec
	InvoiceTransitions  *prometheus.CounterVec
	InvoiceTotal        *prometheus.HistogramVec
	PaymentsRecorded    *prometheus.CounterVec
	PaymentAmount       *prometheus.CounterVec
	PaymentReplays      *prometheus.CounterVec
	StockMovements      *prometheus.CounterVec
	ConflictRetries     *prometheus.CounterVec
	EventsHandled       *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

// NewLedgerMetrics registers the ledger metrics on reg.
// Tests pass a fresh prometheus.NewRegistry().
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	f := promauto.With(reg)

	return &LedgerMetrics{
		InvoicesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "invoices_created_total",
				Help:      "Total invoices created",
			},
			[]string{"tenant_id"},
		),
		InvoiceTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "invoice_transitions_total",
				Help:      "Total invoice status transitions",
			},
			[]string{"tenant_id", "from", "to"},
		),
		InvoiceTotal: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "invoice_total_minor_units",
				Help:      "Invoice totals at creation",
				Buckets:   prometheus.ExponentialBuckets(1000, 4, 10),
			},
			[]string{"tenant_id"},
		),
		PaymentsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "payments_recorded_total",
				Help:      "Total payments recorded",
			},
			[]string{"tenant_id", "method"},
		),
		PaymentAmount: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "payment_amount_minor_units_total",
				Help:      "Sum of recorded payment amounts",
			},
			[]string{"tenant_id"},
		),
		PaymentReplays: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "payment_idempotent_replays_total",
				Help:      "Payments answered from an earlier request with the same idempotency key",
			},
			[]string{"tenant_id"},
		),
		StockMovements: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "stock_movements_total",
				Help:      "Total stock movements by reason",
			},
			[]string{"tenant_id", "reason"},
		),
		ConflictRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "conflict_retries_total",
				Help:      "Units of work retried after a concurrency conflict",
			},
			[]string{"operation"},
		),
		EventsHandled: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "handled_total",
				Help:      "Ledger events handled in process",
			},
			[]string{"event_name", "result"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		HTTPInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
	}
}

// NewDefaultLedgerMetrics registers on the process wide registry served at /metrics
func NewDefaultLedgerMetrics() *LedgerMetrics {
	return NewLedgerMetrics(prometheus.DefaultRegisterer)
}
