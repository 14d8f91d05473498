package solana

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vultisig/solsend/internal/transfer"
)

type sendService struct {
	rpcClient  rpcClient
	commitment rpc.CommitmentType
}

func newSendService(rpcClient rpcClient, commitment rpc.CommitmentType) *sendService {
	return &sendService{
		rpcClient:  rpcClient,
		commitment: commitment,
	}
}

// EstimateFee asks the node for the fee of the transaction message in lamports.
func (s *sendService) EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	res, err := s.rpcClient.GetFeeForMessage(ctx, base64.StdEncoding.EncodeToString(msgBytes), s.commitment)
	if err != nil {
		return 0, fmt.Errorf("solana: failed to get fee for message: %w", err)
	}

	// the node returns null when the blockhash of the message is unknown
	if res.Value == nil {
		return 0, fmt.Errorf("solana: fee unavailable for message")
	}
	return *res.Value, nil
}

func (s *sendService) Broadcast(
	ctx context.Context,
	tx *solana.Transaction,
	opts transfer.SubmitOptions,
) (solana.Signature, error) {
	txOpts := rpc.TransactionOpts{
		PreflightCommitment: s.commitment,
	}
	if opts.MinContextSlot > 0 {
		minContextSlot := opts.MinContextSlot
		txOpts.MinContextSlot = &minContextSlot
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(ctx, tx, txOpts)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("solana: failed to broadcast transaction: %w", err)
	}
	return sig, nil
}
