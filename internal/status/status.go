package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

type TxOnChainStatus string

const (
	TxOnChainPending TxOnChainStatus = "PENDING"
	TxOnChainSuccess TxOnChainStatus = "SUCCESS"
	TxOnChainFail    TxOnChainStatus = "FAIL"
)

// maxConsecutivePollErrors bounds how many failed polls in a row are tolerated.
const maxConsecutivePollErrors = 5

// ErrBlockHeightExceeded means the blockhash expired before the transaction landed.
var ErrBlockHeightExceeded = errors.New("block height exceeded")

// Result is the settled state of a transaction. Err carries the ledger error
// detail of a failed transaction.
type Result struct {
	Status TxOnChainStatus
	Slot   uint64
	Err    any
}

type Caller interface {
	// GetTxStatus reports TxOnChainPending until the transaction reached the
	// caller's commitment.
	GetTxStatus(ctx context.Context, sig solana.Signature) (Result, error)
	GetBlockHeight(ctx context.Context) (uint64, error)
}

type Status struct {
	caller   Caller
	interval time.Duration
	logger   logrus.FieldLogger
}

func NewStatus(caller Caller, interval time.Duration, logger logrus.FieldLogger) *Status {
	if interval <= 0 {
		interval = time.Second
	}
	return &Status{
		caller:   caller,
		interval: interval,
		logger:   logger,
	}
}

// WaitMined polls until the transaction settles or the chain moves past
// lastValidBlockHeight. A failed poll is logged and retried on the next tick;
// only maxConsecutivePollErrors failures in a row end the wait.
func (s *Status) WaitMined(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) (Result, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger := s.logger.WithField("signature", sig.String())
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
			res, err := s.poll(ctx, sig, lastValidBlockHeight)
			if errors.Is(err, ErrBlockHeightExceeded) {
				return Result{}, err
			}
			if err != nil {
				failures++
				if failures >= maxConsecutivePollErrors {
					return Result{}, fmt.Errorf("giving up after %d failed polls: %w", failures, err)
				}
				logger.WithError(err).Warn("confirmation poll failed, retrying")
				continue
			}
			failures = 0
			if res.Status != TxOnChainPending {
				return res, nil
			}
		}
	}
}

func (s *Status) poll(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) (Result, error) {
	res, err := s.caller.GetTxStatus(ctx, sig)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get tx status: %w", err)
	}
	if res.Status != TxOnChainPending {
		return res, nil
	}

	height, err := s.caller.GetBlockHeight(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get block height: %w", err)
	}
	if height > lastValidBlockHeight {
		return Result{}, fmt.Errorf("signature %s: %w", sig, ErrBlockHeightExceeded)
	}
	return res, nil
}
