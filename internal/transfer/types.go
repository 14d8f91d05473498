package transfer

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Wallet supplies the connected identity and signs transactions on its behalf.
type Wallet interface {
	// PublicKey returns the connected identity, false when the wallet is disconnected.
	PublicKey() (solana.PublicKey, bool)

	// SignAndSubmit signs tx and submits it through the given ledger connection.
	SignAndSubmit(ctx context.Context, tx *solana.Transaction, conn Submitter, opts SubmitOptions) (solana.Signature, error)
}

// Submitter broadcasts an already signed transaction.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts SubmitOptions) (solana.Signature, error)
}

// Ledger is the read and submit surface of the ledger RPC node.
type Ledger interface {
	Submitter

	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)

	// GetLatestBlockReference is the fee-estimate variant, MinContextSlot is not populated.
	GetLatestBlockReference(ctx context.Context) (BlockReference, error)

	// GetLatestBlockReferenceWithContext returns the reference together with the slot
	// the node evaluated it at, both from the same query.
	GetLatestBlockReferenceWithContext(ctx context.Context) (BlockReference, error)

	EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error)
	ConfirmTransaction(ctx context.Context, ref BlockReference, sig solana.Signature) (ConfirmationResult, error)
	GetSlot(ctx context.Context) (uint64, error)
	GetBlockTime(ctx context.Context, slot uint64) (time.Time, error)
}

// SubmitOptions constrain how a transaction is submitted.
type SubmitOptions struct {
	// MinContextSlot prevents the node from evaluating the transaction
	// against a view of the ledger older than this slot.
	MinContextSlot uint64
}

// BlockReference anchors a transaction to a recent block.
type BlockReference struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
	MinContextSlot       uint64
}

// ConfirmationResult is what the ledger reports once a transaction settled.
// Err holds the ledger error detail, either a string or a structured value.
type ConfirmationResult struct {
	Slot uint64
	Err  any
}

// Request is an immutable transfer built on a send intent.
type Request struct {
	ID        string
	Sender    solana.PublicKey
	Recipient solana.PublicKey
	Amount    string
	Lamports  uint64
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
)

// Notice is the last user-visible outcome of a send attempt.
type Notice struct {
	Kind        NoticeKind
	AttemptID   string
	Message     string
	Signature   solana.Signature
	ExplorerURL string
	Detail      any
	At          time.Time
}
