package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ledger metrics
	paymentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payments_created_total",
		Help: "Total payments recorded in the ledger",
	}, []string{
		"method",   // card, upi, netbanking, wallet, cash
		"currency",
	})

	paymentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payment_transitions_total",
		Help: "Payment status transitions, including redelivered no-ops",
	}, []string{
		"to",
		"result", // applied, duplicate, rejected
	})

	refundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_refunds_total",
		Help: "Refund lifecycle events",
	}, []string{
		"status", // requested, processed, failed, rejected
	})

	refundAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_refund_amount_total",
		Help: "Sum of processed refund amounts in major currency units",
	}, []string{
		"currency",
	})

	ledgerWriteRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_write_retries_total",
		Help: "Optimistic concurrency retries on payment writes",
	}, []string{
		"operation",
	})

	gatewayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_events_total",
		Help: "Gateway webhook events received",
	}, []string{
		"event",   // authorized, captured, failed, cancelled, refund_processed, refund_failed
		"outcome", // applied, duplicate, error
	})

	// Settlement metrics
	settlementRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_requests_total",
		Help: "Settlement request attempts by outcome",
	}, []string{
		"type",    // normal, urgent
		"outcome", // created, nothing_to_settle, amount_mismatch, concurrent_claim, error
	})

	settlementClaimedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_claimed_amount_total",
		Help: "Sum of net amounts claimed into settlement requests",
	}, []string{
		"type",
		"currency",
	})

	settlementClaimDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_claim_duration_seconds",
		Help:    "Time spent in the atomic claim transaction",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{
		"outcome",
	})

	settlementStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_status_changes_total",
		Help: "Settlement request status changes made by operators and workers",
	}, []string{
		"status", // processing, settled, failed
	})

	reportQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_queries_total",
		Help: "Aggregation report queries",
	}, []string{
		"report", // stats, stats_by_status
		"source", // primary, replica
	})
)

// RecordPaymentCreated records a new ledger payment
func RecordPaymentCreated(method, currency string) {
	paymentsCreatedTotal.WithLabelValues(method, currency).Inc()
}

// RecordPaymentTransition records the result of a status transition
func RecordPaymentTransition(to, result string) {
	paymentTransitionsTotal.WithLabelValues(to, result).Inc()
}

// RecordRefund records a refund lifecycle event. amount is only added for processed refunds.
func RecordRefund(status, currency string, amount float64) {
	refundsTotal.WithLabelValues(status).Inc()
	if status == "processed" {
		refundAmount.WithLabelValues(currency).Add(amount)
	}
}

// RecordLedgerRetry records one optimistic concurrency retry
func RecordLedgerRetry(operation string) {
	ledgerWriteRetries.WithLabelValues(operation).Inc()
}

// RecordGatewayEvent records a gateway webhook delivery
func RecordGatewayEvent(event, outcome string) {
	gatewayEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordSettlementRequest records a settlement request attempt and its claim duration
func RecordSettlementRequest(requestType, outcome, currency string, claimed float64, duration float64) {
	settlementRequestsTotal.WithLabelValues(requestType, outcome).Inc()
	settlementClaimDuration.WithLabelValues(outcome).Observe(duration)
	if outcome == "created" {
		settlementClaimedAmount.WithLabelValues(requestType, currency).Add(claimed)
	}
}

// RecordSettlementStatusChange records an operator or worker status change
func RecordSettlementStatusChange(status string) {
	settlementStatusChanges.WithLabelValues(status).Inc()
}

// RecordReportQuery records an aggregation query
func RecordReportQuery(report, source string) {
	reportQueriesTotal.WithLabelValues(report, source).Inc()
}
