package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/solsend/internal/status"
	"github.com/vultisig/solsend/internal/transfer"
)

type Config struct {
	RPCURL              string        `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	Cluster             string        `envconfig:"SOLANA_CLUSTER" default:"devnet"`
	Commitment          string        `envconfig:"SOLANA_COMMITMENT" default:"confirmed"`
	ConfirmPollInterval time.Duration `envconfig:"SOLANA_CONFIRM_POLL_INTERVAL" default:"1s"`
	KeypairPath         string        `envconfig:"SOLANA_KEYPAIR_PATH"`
	PrivateKey          string        `envconfig:"SOLANA_PRIVATE_KEY"`
}

type rpcClient interface {
	GetVersion(ctx context.Context) (*rpc.GetVersionResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetFeeForMessage(ctx context.Context, message string, commitment rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error)
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetBlockTime(ctx context.Context, block uint64) (*solana.UnixTimeSeconds, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetSignatureStatuses(
		ctx context.Context,
		searchTransactionHistory bool,
		transactionSignatures ...solana.Signature,
	) (*rpc.GetSignatureStatusesResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Network is the ledger client of a single Solana cluster.
type Network struct {
	rpcClient   rpcClient
	commitment  rpc.CommitmentType
	sendService *sendService
	status      *status.Status
}

var _ transfer.Ledger = (*Network)(nil)

func NewNetwork(ctx context.Context, cfg Config, logger logrus.FieldLogger) (*Network, error) {
	rpcClient := rpc.New(cfg.RPCURL)

	_, err := rpcClient.GetVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Solana RPC: %w", err)
	}

	return newNetwork(rpcClient, cfg, logger)
}

func newNetwork(client rpcClient, cfg Config, logger logrus.FieldLogger) (*Network, error) {
	commitment, err := parseCommitment(cfg.Commitment)
	if err != nil {
		return nil, err
	}

	n := &Network{
		rpcClient:   client,
		commitment:  commitment,
		sendService: newSendService(client, commitment),
	}
	n.status = status.NewStatus(n, cfg.ConfirmPollInterval, logger)
	return n, nil
}

func parseCommitment(s string) (rpc.CommitmentType, error) {
	switch c := rpc.CommitmentType(s); c {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
		return c, nil
	case "":
		return rpc.CommitmentConfirmed, nil
	default:
		return "", fmt.Errorf("unsupported commitment %q", s)
	}
}

func (n *Network) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	res, err := n.rpcClient.GetBalance(ctx, owner, n.commitment)
	if err != nil {
		return 0, fmt.Errorf("solana: failed to get balance: %w", err)
	}
	return res.Value, nil
}

func (n *Network) GetLatestBlockReference(ctx context.Context) (transfer.BlockReference, error) {
	ref, err := n.GetLatestBlockReferenceWithContext(ctx)
	if err != nil {
		return transfer.BlockReference{}, err
	}
	ref.MinContextSlot = 0
	return ref, nil
}

func (n *Network) GetLatestBlockReferenceWithContext(ctx context.Context) (transfer.BlockReference, error) {
	block, err := n.rpcClient.GetLatestBlockhash(ctx, n.commitment)
	if err != nil {
		return transfer.BlockReference{}, fmt.Errorf("solana: failed to get recent blockhash: %w", err)
	}
	if block.Value == nil {
		return transfer.BlockReference{}, fmt.Errorf("solana: empty blockhash response")
	}

	return transfer.BlockReference{
		Hash:                 block.Value.Blockhash,
		LastValidBlockHeight: block.Value.LastValidBlockHeight,
		MinContextSlot:       block.Context.Slot,
	}, nil
}

func (n *Network) EstimateFee(ctx context.Context, tx *solana.Transaction) (uint64, error) {
	return n.sendService.EstimateFee(ctx, tx)
}

func (n *Network) SendTransaction(ctx context.Context, tx *solana.Transaction, opts transfer.SubmitOptions) (solana.Signature, error) {
	return n.sendService.Broadcast(ctx, tx, opts)
}

func (n *Network) ConfirmTransaction(
	ctx context.Context,
	ref transfer.BlockReference,
	sig solana.Signature,
) (transfer.ConfirmationResult, error) {
	res, err := n.status.WaitMined(ctx, sig, ref.LastValidBlockHeight)
	if err != nil {
		return transfer.ConfirmationResult{}, fmt.Errorf("solana: failed to wait for confirmation: %w", err)
	}

	return transfer.ConfirmationResult{
		Slot: res.Slot,
		Err:  res.Err,
	}, nil
}

func (n *Network) GetSlot(ctx context.Context) (uint64, error) {
	slot, err := n.rpcClient.GetSlot(ctx, n.commitment)
	if err != nil {
		return 0, fmt.Errorf("solana: failed to get slot: %w", err)
	}
	return slot, nil
}

func (n *Network) GetBlockTime(ctx context.Context, slot uint64) (time.Time, error) {
	ts, err := n.rpcClient.GetBlockTime(ctx, slot)
	if err != nil {
		return time.Time{}, fmt.Errorf("solana: failed to get block time: %w", err)
	}
	if ts == nil {
		return time.Time{}, fmt.Errorf("solana: block time unavailable for slot %d", slot)
	}
	return ts.Time(), nil
}

func (n *Network) GetBlockHeight(ctx context.Context) (uint64, error) {
	return n.rpcClient.GetBlockHeight(ctx, n.commitment)
}

// GetTxStatus maps the signature status to the on-chain status at the
// configured commitment.
func (n *Network) GetTxStatus(ctx context.Context, sig solana.Signature) (status.Result, error) {
	res, err := n.rpcClient.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return status.Result{}, fmt.Errorf("solana: failed to get signature status: %w", err)
	}

	if len(res.Value) == 0 || res.Value[0] == nil {
		return status.Result{Status: status.TxOnChainPending}, nil
	}

	st := res.Value[0]
	if !reachedCommitment(st.ConfirmationStatus, n.commitment) {
		return status.Result{Status: status.TxOnChainPending, Slot: st.Slot}, nil
	}

	if st.Err != nil {
		return status.Result{Status: status.TxOnChainFail, Slot: st.Slot, Err: st.Err}, nil
	}
	return status.Result{Status: status.TxOnChainSuccess, Slot: st.Slot}, nil
}

func reachedCommitment(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return got == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return got == rpc.ConfirmationStatusConfirmed || got == rpc.ConfirmationStatusFinalized
	default:
		return got != ""
	}
}
