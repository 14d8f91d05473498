package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

var errLedger = errors.New("node unavailable")

type fakeWallet struct {
	mu        sync.Mutex
	key       solana.PublicKey
	connected bool
	sig       solana.Signature
	err       error
	block     chan struct{}
	entered   chan struct{}
	submitted []*solana.Transaction
	opts      []SubmitOptions
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		key:       solana.NewWallet().PublicKey(),
		connected: true,
		sig:       solana.Signature{1, 2, 3},
	}
}

func (w *fakeWallet) PublicKey() (solana.PublicKey, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.key, w.connected
}

func (w *fakeWallet) SignAndSubmit(
	ctx context.Context,
	tx *solana.Transaction,
	conn Submitter,
	opts SubmitOptions,
) (solana.Signature, error) {
	w.mu.Lock()
	w.submitted = append(w.submitted, tx)
	w.opts = append(w.opts, opts)
	entered, block := w.entered, w.block
	w.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if w.err != nil {
		return solana.Signature{}, w.err
	}
	return w.sig, nil
}

func (w *fakeWallet) submissions() []*solana.Transaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*solana.Transaction(nil), w.submitted...)
}

type fakeLedger struct {
	mu    sync.Mutex
	calls map[string]int

	balance    uint64
	balanceErr error
	fee        uint64
	feeErr     error
	ref        BlockReference
	refErr     error
	confirm    ConfirmationResult
	confirmErr error
	slot       uint64
	slotErr    error
	blockTimes map[uint64]time.Time

	confirmedRefs []BlockReference
}

func newFakeLedger() *fakeLedger {
	now := time.Unix(1_700_000_000, 0)
	return &fakeLedger{
		calls:   make(map[string]int),
		balance: 3_000_000_000,
		fee:     5000,
		ref: BlockReference{
			Hash:                 solana.Hash{9, 9, 9},
			LastValidBlockHeight: 150,
			MinContextSlot:       1234,
		},
		slot: 1000,
		blockTimes: map[uint64]time.Time{
			999:  now,
			1000: now.Add(time.Second),
		},
	}
}

func (l *fakeLedger) inc(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[name]++
}

func (l *fakeLedger) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}

func (l *fakeLedger) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

func (l *fakeLedger) SendTransaction(context.Context, *solana.Transaction, SubmitOptions) (solana.Signature, error) {
	l.inc("SendTransaction")
	return solana.Signature{}, nil
}

func (l *fakeLedger) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	l.inc("GetBalance")
	return l.balance, l.balanceErr
}

func (l *fakeLedger) GetLatestBlockReference(context.Context) (BlockReference, error) {
	l.inc("GetLatestBlockReference")
	ref := l.ref
	ref.MinContextSlot = 0
	return ref, l.refErr
}

func (l *fakeLedger) GetLatestBlockReferenceWithContext(context.Context) (BlockReference, error) {
	l.inc("GetLatestBlockReferenceWithContext")
	return l.ref, l.refErr
}

func (l *fakeLedger) EstimateFee(context.Context, *solana.Transaction) (uint64, error) {
	l.inc("EstimateFee")
	return l.fee, l.feeErr
}

func (l *fakeLedger) ConfirmTransaction(_ context.Context, ref BlockReference, _ solana.Signature) (ConfirmationResult, error) {
	l.inc("ConfirmTransaction")
	l.mu.Lock()
	l.confirmedRefs = append(l.confirmedRefs, ref)
	l.mu.Unlock()
	return l.confirm, l.confirmErr
}

func (l *fakeLedger) GetSlot(context.Context) (uint64, error) {
	l.inc("GetSlot")
	return l.slot, l.slotErr
}

func (l *fakeLedger) GetBlockTime(_ context.Context, slot uint64) (time.Time, error) {
	l.inc("GetBlockTime")
	t, ok := l.blockTimes[slot]
	if !ok {
		return time.Time{}, errors.New("block not available")
	}
	return t, nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	submissions []string
	refreshes   map[string][]bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{refreshes: make(map[string][]bool)}
}

func (r *fakeRecorder) RecordSubmission(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submissions = append(r.submissions, outcome)
}

func (r *fakeRecorder) RecordDisplayRefresh(field string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes[field] = append(r.refreshes[field], success)
}

// decodeTransferLamports extracts the lamports of the system transfer in tx.
func decodeTransferLamports(tx *solana.Transaction) (uint64, solana.PublicKey, error) {
	if len(tx.Message.Instructions) != 1 {
		return 0, solana.PublicKey{}, errors.New("expected a single instruction")
	}
	compiled := tx.Message.Instructions[0]
	accounts, err := compiled.ResolveInstructionAccounts(&tx.Message)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	inst, err := system.DecodeInstruction(accounts, compiled.Data)
	if err != nil {
		return 0, solana.PublicKey{}, err
	}
	transferInst, ok := inst.Impl.(*system.Transfer)
	if !ok {
		return 0, solana.PublicKey{}, errors.New("not a transfer instruction")
	}
	return *transferInst.Lamports, transferInst.GetRecipientAccount().PublicKey, nil
}
