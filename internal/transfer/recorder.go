package transfer

import "time"

const (
	FieldBalance          = "balance"
	FieldFee              = "fee"
	FieldConfirmationTime = "confirmation_time"
)

const (
	OutcomeSuccess      = "success"
	OutcomePrecondition = "precondition"
	OutcomeLedgerError  = "ledger_error"
	OutcomeTxFailed     = "tx_failed"
)

// Recorder receives orchestration metrics.
type Recorder interface {
	RecordSubmission(outcome string, duration time.Duration)
	RecordDisplayRefresh(field string, success bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSubmission(string, time.Duration) {}

func (nopRecorder) RecordDisplayRefresh(string, bool) {}
