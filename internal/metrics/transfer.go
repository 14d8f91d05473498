package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Send attempts by outcome
	transferSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solsend",
			Subsystem: "transfer",
			Name:      "submissions_total",
			Help:      "Total number of transfer submissions",
		},
		[]string{"outcome"}, // success, precondition, ledger_error, tx_failed
	)

	transferSubmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "solsend",
			Subsystem: "transfer",
			Name:      "submission_duration_seconds",
			Help:      "Time from send intent to settled outcome",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	transferLastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "solsend",
			Subsystem: "transfer",
			Name:      "last_success_timestamp",
			Help:      "Timestamp of the last confirmed transfer",
		},
	)

	// Display data refreshes per field
	displayRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "solsend",
			Subsystem: "display",
			Name:      "refresh_total",
			Help:      "Total number of display field refreshes",
		},
		[]string{"field", "status"}, // balance/fee/confirmation_time, success/error
	)
)

// TransferMetrics records orchestration metrics
type TransferMetrics struct{}

// NewTransferMetrics creates a new instance of TransferMetrics
func NewTransferMetrics() *TransferMetrics {
	return &TransferMetrics{}
}

// RecordSubmission records a settled send attempt
func (tm *TransferMetrics) RecordSubmission(outcome string, duration time.Duration) {
	transferSubmissionsTotal.WithLabelValues(outcome).Inc()
	transferSubmissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == "success" {
		transferLastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}
}

// RecordDisplayRefresh records a balance, fee or confirmation time refresh
func (tm *TransferMetrics) RecordDisplayRefresh(field string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	displayRefreshTotal.WithLabelValues(field, status).Inc()
}
