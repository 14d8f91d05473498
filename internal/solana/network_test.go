package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/solsend/internal/status"
	"github.com/vultisig/solsend/internal/transfer"
)

type fakeRPC struct {
	balance      uint64
	blockhash    solana.Hash
	lastValid    uint64
	contextSlot  uint64
	fee          *uint64
	feeMessage   string
	slot         uint64
	blockTime    *solana.UnixTimeSeconds
	height       uint64
	statuses     []*rpc.SignatureStatusesResult
	statusPolls  int
	statusErrs   []error
	sent         []*solana.Transaction
	sentOpts     []rpc.TransactionOpts
	sendErr      error
	commitments  []rpc.CommitmentType
	blockhashErr error
}

func (f *fakeRPC) GetVersion(context.Context) (*rpc.GetVersionResult, error) {
	return &rpc.GetVersionResult{}, nil
}

func (f *fakeRPC) GetBalance(_ context.Context, _ solana.PublicKey, c rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	f.commitments = append(f.commitments, c)
	return &rpc.GetBalanceResult{Value: f.balance}, nil
}

func (f *fakeRPC) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	res := &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            f.blockhash,
			LastValidBlockHeight: f.lastValid,
		},
	}
	res.Context.Slot = f.contextSlot
	return res, nil
}

func (f *fakeRPC) GetFeeForMessage(_ context.Context, message string, _ rpc.CommitmentType) (*rpc.GetFeeForMessageResult, error) {
	f.feeMessage = message
	return &rpc.GetFeeForMessageResult{Value: f.fee}, nil
}

func (f *fakeRPC) GetSlot(context.Context, rpc.CommitmentType) (uint64, error) {
	return f.slot, nil
}

func (f *fakeRPC) GetBlockTime(context.Context, uint64) (*solana.UnixTimeSeconds, error) {
	return f.blockTime, nil
}

func (f *fakeRPC) GetBlockHeight(context.Context, rpc.CommitmentType) (uint64, error) {
	return f.height, nil
}

func (f *fakeRPC) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	i := f.statusPolls
	f.statusPolls++
	if i < len(f.statusErrs) && f.statusErrs[i] != nil {
		return nil, f.statusErrs[i]
	}
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.statuses[i]}}, nil
}

func (f *fakeRPC) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.sent = append(f.sent, tx)
	f.sentOpts = append(f.sentOpts, opts)
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return tx.Signatures[0], nil
}

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func testConfig() Config {
	return Config{Commitment: "confirmed", ConfirmPollInterval: time.Millisecond}
}

func TestNetwork_BlockReference(t *testing.T) {
	f := &fakeRPC{blockhash: solana.Hash{4, 2}, lastValid: 300, contextSlot: 280}
	n, err := newNetwork(f, testConfig(), testLogger())
	require.NoError(t, err)

	ref, err := n.GetLatestBlockReferenceWithContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transfer.BlockReference{Hash: f.blockhash, LastValidBlockHeight: 300, MinContextSlot: 280}, ref)

	ref, err = n.GetLatestBlockReference(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.blockhash, ref.Hash)
	assert.Zero(t, ref.MinContextSlot)

	f.blockhashErr = errors.New("timeout")
	_, err = n.GetLatestBlockReference(context.Background())
	assert.Error(t, err)
}

func TestNetwork_EstimateFee(t *testing.T) {
	fee := uint64(5000)
	f := &fakeRPC{fee: &fee}
	n, err := newNetwork(f, testConfig(), testLogger())
	require.NoError(t, err)

	from := solana.NewWallet().PublicKey()
	tx, err := transfer.NewTransferTransaction(from, solana.NewWallet().PublicKey(), 0, solana.Hash{1})
	require.NoError(t, err)

	got, err := n.EstimateFee(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, fee, got)

	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(msg), f.feeMessage)

	f.fee = nil
	_, err = n.EstimateFee(context.Background(), tx)
	assert.Error(t, err)
}

func TestNetwork_ConfirmTransaction(t *testing.T) {
	detail := map[string]any{"InstructionError": []any{0, "Custom"}}
	tests := []struct {
		name       string
		statuses   []*rpc.SignatureStatusesResult
		height     uint64
		statusErrs []error
		wantErr    error
		wantFail   any
	}{
		{
			name: "confirmed",
			statuses: []*rpc.SignatureStatusesResult{
				nil,
				{Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusProcessed},
				{Slot: 10, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
			},
			height: 100,
		},
		{
			name: "failed",
			statuses: []*rpc.SignatureStatusesResult{
				{Slot: 11, ConfirmationStatus: rpc.ConfirmationStatusFinalized, Err: detail},
			},
			height:   100,
			wantFail: detail,
		},
		{
			name: "transient poll errors",
			statuses: []*rpc.SignatureStatusesResult{
				nil,
				nil,
				{Slot: 12, ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
			},
			statusErrs: []error{errors.New("connection reset"), errors.New("429 too many requests")},
			height:     100,
		},
		{
			name:     "expired",
			statuses: []*rpc.SignatureStatusesResult{nil},
			height:   301,
			wantErr:  status.ErrBlockHeightExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRPC{statuses: tt.statuses, statusErrs: tt.statusErrs, height: tt.height}
			n, err := newNetwork(f, testConfig(), testLogger())
			require.NoError(t, err)

			res, err := n.ConfirmTransaction(context.Background(), transfer.BlockReference{LastValidBlockHeight: 300}, solana.Signature{1})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFail, res.Err)
		})
	}
}

func TestNetwork_GetBlockTime(t *testing.T) {
	ts := solana.UnixTimeSeconds(1_700_000_000)
	f := &fakeRPC{blockTime: &ts}
	n, err := newNetwork(f, testConfig(), testLogger())
	require.NoError(t, err)

	got, err := n.GetBlockTime(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1_700_000_000, 0), got)

	f.blockTime = nil
	_, err = n.GetBlockTime(context.Background(), 5)
	assert.Error(t, err)
}

func TestNetwork_Commitment(t *testing.T) {
	_, err := newNetwork(&fakeRPC{}, Config{Commitment: "bogus"}, testLogger())
	assert.Error(t, err)

	f := &fakeRPC{balance: 7}
	n, err := newNetwork(f, Config{Commitment: "finalized"}, testLogger())
	require.NoError(t, err)
	balance, err := n.GetBalance(context.Background(), solana.PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), balance)
	assert.Equal(t, []rpc.CommitmentType{rpc.CommitmentFinalized}, f.commitments)
}

func TestKeypairWallet_SignAndSubmit(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w := NewKeypairWallet(key)
	f := &fakeRPC{}
	n, err := newNetwork(f, testConfig(), testLogger())
	require.NoError(t, err)

	tx, err := transfer.NewTransferTransaction(key.PublicKey(), solana.NewWallet().PublicKey(), 10, solana.Hash{1})
	require.NoError(t, err)

	_, ok := w.PublicKey()
	assert.False(t, ok)
	_, err = w.SignAndSubmit(context.Background(), tx, n, transfer.SubmitOptions{})
	assert.ErrorIs(t, err, transfer.ErrWalletNotConnected)

	w.Connect()
	pub, ok := w.PublicKey()
	require.True(t, ok)
	assert.Equal(t, key.PublicKey(), pub)

	sig, err := w.SignAndSubmit(context.Background(), tx, n, transfer.SubmitOptions{MinContextSlot: 55})
	require.NoError(t, err)
	require.Len(t, f.sent, 1)
	assert.Equal(t, tx.Signatures[0], sig)
	require.NoError(t, tx.VerifySignatures())

	require.NotNil(t, f.sentOpts[0].MinContextSlot)
	assert.Equal(t, uint64(55), *f.sentOpts[0].MinContextSlot)
	assert.Equal(t, rpc.CommitmentConfirmed, f.sentOpts[0].PreflightCommitment)

	w.Disconnect()
	_, ok = w.PublicKey()
	assert.False(t, ok)
}

func TestKeypairWallet_RejectsForeignPayer(t *testing.T) {
	w := NewKeypairWallet(solana.NewWallet().PrivateKey)
	w.Connect()

	tx, err := transfer.NewTransferTransaction(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 10, solana.Hash{1})
	require.NoError(t, err)

	_, err = w.SignAndSubmit(context.Background(), tx, &Network{}, transfer.SubmitOptions{})
	assert.Error(t, err)
}

func TestLoadPrivateKey(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	got, err := LoadPrivateKey("", key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), got.PublicKey())

	_, err = LoadPrivateKey("", "")
	assert.Error(t, err)
}
