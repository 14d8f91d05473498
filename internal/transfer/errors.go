package transfer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrSubmissionPending  = errors.New("transfer already pending")
)

// PreconditionError rejects a send before anything reaches the ledger.
type PreconditionError struct {
	Reason error
	Input  string
	Cause  error
}

func (e *PreconditionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason.Error()
}

func (e *PreconditionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

// LedgerCallError wraps any failure of a network round trip during a send.
type LedgerCallError struct {
	Op  string
	Err error
}

func (e *LedgerCallError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *LedgerCallError) Unwrap() error {
	return e.Err
}

// TransactionOutcomeError is returned when the ledger confirmed the
// transaction as failed.
type TransactionOutcomeError struct {
	Signature solana.Signature
	Detail    any
}

func (e *TransactionOutcomeError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Signature, describeDetail(e.Detail))
}

func describeDetail(detail any) string {
	switch d := detail.(type) {
	case nil:
		return "unknown error"
	case string:
		return d
	case error:
		return d.Error()
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprintf("%v", d)
		}
		return string(b)
	}
}

// IsPrecondition reports whether err rejected a send before any network effect.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
