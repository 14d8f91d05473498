package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/solsend/internal/util"
)

// AmountZero is what the entered amount resets to after a successful send.
const AmountZero = "0"

// Orchestrator drives the send lifecycle of a single wallet session and keeps
// the auxiliary display data (balance, fee, confirmation time) fresh.
//
// Submissions are not serialized unless WithSingleFlight is set: two sends
// triggered before the first settles produce two independent transfers.
type Orchestrator struct {
	logger       logrus.FieldLogger
	recorder     Recorder
	cluster      string
	singleFlight bool
	newRecipient func() solana.PublicKey
	newAttemptID func() string
	now          func() time.Time

	mu               sync.Mutex
	wallet           Wallet
	ledger           Ledger
	generation       uint64
	amount           string
	pending          int
	balance          Field[uint64]
	fee              Field[uint64]
	confirmationTime Field[time.Duration]
	notice           *Notice

	subMu       sync.Mutex
	subscribers map[int]chan View
	nextSubID   int
}

type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithCluster sets the cluster name used for explorer links.
func WithCluster(cluster string) Option {
	return func(o *Orchestrator) {
		o.cluster = cluster
	}
}

// WithSingleFlight rejects a send while another one is pending.
func WithSingleFlight() Option {
	return func(o *Orchestrator) {
		o.singleFlight = true
	}
}

// WithRecipientGenerator overrides how the one-time recipient is generated.
func WithRecipientGenerator(fn func() solana.PublicKey) Option {
	return func(o *Orchestrator) {
		o.newRecipient = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(wallet Wallet, ledger Ledger, logger logrus.FieldLogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:   logger,
		recorder: nopRecorder{},
		newRecipient: func() solana.PublicKey {
			return solana.NewWallet().PublicKey()
		},
		newAttemptID: func() string {
			return uuid.NewString()
		},
		now:         time.Now,
		wallet:      wallet,
		ledger:      ledger,
		amount:      AmountZero,
		subscribers: make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) snapshot() (Wallet, Ledger, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.wallet, o.ledger, o.generation
}

func identityOf(wallet Wallet) (solana.PublicKey, bool) {
	if wallet == nil {
		return solana.PublicKey{}, false
	}
	return wallet.PublicKey()
}

// Identity returns the connected public key, if any.
func (o *Orchestrator) Identity() (solana.PublicKey, bool) {
	wallet, _, _ := o.snapshot()
	return identityOf(wallet)
}

// SetAmount stores the amount as entered; it is validated only on send.
func (o *Orchestrator) SetAmount(amount string) {
	o.mu.Lock()
	o.amount = amount
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) Amount() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.amount
}

// OnContextChanged swaps the wallet and ledger connection, drops display data
// of the previous context and refreshes it. A nil ledger keeps the current one.
func (o *Orchestrator) OnContextChanged(ctx context.Context, wallet Wallet, ledger Ledger) {
	o.mu.Lock()
	o.wallet = wallet
	if ledger != nil {
		o.ledger = ledger
	}
	o.generation++
	o.balance = Field[uint64]{}
	o.fee = Field[uint64]{}
	o.confirmationTime = Field[time.Duration]{}
	o.mu.Unlock()
	o.publish()

	o.RefreshDisplayData(ctx)
}

// RefreshDisplayData fetches balance, fee estimate and a confirmation time
// sample concurrently. Each fetch stores its own result; a failure in one does
// not affect the others. No-op without a connected identity.
func (o *Orchestrator) RefreshDisplayData(ctx context.Context) {
	wallet, ledger, gen := o.snapshot()
	owner, ok := identityOf(wallet)
	if !ok || ledger == nil {
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		balance, err := ledger.GetBalance(ctx, owner)
		o.storeBalance(gen, balance, err)
		return nil
	})
	g.Go(func() error {
		fee, err := o.estimateFee(ctx, ledger, owner)
		o.storeFee(gen, fee, err)
		return nil
	})
	g.Go(func() error {
		latency, err := sampleConfirmationTime(ctx, ledger)
		o.storeConfirmationTime(gen, latency, err)
		return nil
	})
	_ = g.Wait()
}

// EstimateFee quotes the fee, in lamports, of a representative transfer from
// the connected identity and stores it as the displayed fee.
func (o *Orchestrator) EstimateFee(ctx context.Context) (uint64, error) {
	wallet, ledger, gen := o.snapshot()
	owner, ok := identityOf(wallet)
	if !ok || ledger == nil {
		return 0, ErrWalletNotConnected
	}

	fee, err := o.estimateFee(ctx, ledger, owner)
	o.storeFee(gen, fee, err)
	if err != nil {
		return 0, err
	}
	return fee, nil
}

func (o *Orchestrator) estimateFee(ctx context.Context, ledger Ledger, owner solana.PublicKey) (uint64, error) {
	ref, err := ledger.GetLatestBlockReference(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block reference: %w", err)
	}

	tx, err := NewTransferTransaction(owner, o.newRecipient(), 0, ref.Hash)
	if err != nil {
		return 0, err
	}

	fee, err := ledger.EstimateFee(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate fee: %w", err)
	}
	return fee, nil
}

// sampleConfirmationTime measures the block time between the latest slot and
// the one before it.
func sampleConfirmationTime(ctx context.Context, ledger Ledger) (time.Duration, error) {
	slot, err := ledger.GetSlot(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot: %w", err)
	}
	if slot == 0 {
		return 0, fmt.Errorf("no previous slot to sample")
	}

	latest, err := ledger.GetBlockTime(ctx, slot)
	if err != nil {
		return 0, fmt.Errorf("failed to get block time of slot %d: %w", slot, err)
	}

	previous, err := ledger.GetBlockTime(ctx, slot-1)
	if err != nil {
		return 0, fmt.Errorf("failed to get block time of slot %d: %w", slot-1, err)
	}

	latency := latest.Sub(previous)
	if latency < 0 {
		latency = 0
	}
	return latency, nil
}

// SubmitTransfer sends the entered amount to a freshly generated recipient and
// waits for confirmation. Nothing is retried: a failed attempt has to be
// triggered again, and a retry after an ambiguous failure is a new transfer.
func (o *Orchestrator) SubmitTransfer(ctx context.Context) (solana.Signature, error) {
	start := o.now()
	attemptID := o.newAttemptID()

	o.mu.Lock()
	wallet, ledger, gen, amount := o.wallet, o.ledger, o.generation, o.amount
	o.mu.Unlock()

	owner, ok := identityOf(wallet)
	if !ok || ledger == nil {
		return solana.Signature{}, o.reject(start, attemptID, &PreconditionError{Reason: ErrWalletNotConnected})
	}

	lamports, err := util.SolToLamports(amount)
	if err != nil {
		return solana.Signature{}, o.reject(start, attemptID, &PreconditionError{
			Reason: ErrInvalidAmount,
			Input:  amount,
			Cause:  err,
		})
	}

	o.mu.Lock()
	if o.singleFlight && o.pending > 0 {
		o.mu.Unlock()
		return solana.Signature{}, o.reject(start, attemptID, &PreconditionError{Reason: ErrSubmissionPending})
	}
	o.pending++
	o.mu.Unlock()
	o.publish()

	defer func() {
		o.mu.Lock()
		o.pending--
		o.mu.Unlock()
		o.publish()
	}()

	req := Request{
		ID:        attemptID,
		Sender:    owner,
		Recipient: o.newRecipient(),
		Amount:    amount,
		Lamports:  lamports,
	}

	logger := o.logger.WithFields(logrus.Fields{
		"attemptID": req.ID,
		"from":      req.Sender.String(),
		"to":        req.Recipient.String(),
		"lamports":  req.Lamports,
	})
	logger.Info("submitting transfer")

	sig, err := o.submit(ctx, wallet, ledger, req)
	if err != nil {
		o.settleFailure(start, req.ID, sig, err)
		logger.WithError(err).Warn("transfer failed")
		return sig, err
	}

	o.setNotice(&Notice{
		Kind:        NoticeSuccess,
		AttemptID:   req.ID,
		Message:     "Transaction successful",
		Signature:   sig,
		ExplorerURL: ExplorerURL(o.cluster, sig),
		At:          o.now(),
	})
	o.recorder.RecordSubmission(OutcomeSuccess, o.now().Sub(start))
	logger.WithField("signature", sig.String()).Info("transfer confirmed")

	balance, balanceErr := ledger.GetBalance(ctx, owner)
	o.storeBalance(gen, balance, balanceErr)

	o.SetAmount(AmountZero)
	return sig, nil
}

func (o *Orchestrator) submit(ctx context.Context, wallet Wallet, ledger Ledger, req Request) (solana.Signature, error) {
	inst := req.Instruction()

	ref, err := ledger.GetLatestBlockReferenceWithContext(ctx)
	if err != nil {
		return solana.Signature{}, &LedgerCallError{Op: "get latest block reference", Err: err}
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		ref.Hash,
		solana.TransactionPayer(req.Sender),
	)
	if err != nil {
		return solana.Signature{}, &LedgerCallError{Op: "create transaction", Err: err}
	}

	sig, err := wallet.SignAndSubmit(ctx, tx, ledger, SubmitOptions{MinContextSlot: ref.MinContextSlot})
	if err != nil {
		return solana.Signature{}, &LedgerCallError{Op: "sign and submit transaction", Err: err}
	}

	res, err := ledger.ConfirmTransaction(ctx, ref, sig)
	if err != nil {
		return sig, &LedgerCallError{Op: "confirm transaction", Err: err}
	}

	if res.Err != nil {
		return sig, &TransactionOutcomeError{Signature: sig, Detail: res.Err}
	}
	return sig, nil
}

func (o *Orchestrator) reject(start time.Time, attemptID string, err *PreconditionError) error {
	message := "Cannot send"
	switch err.Reason {
	case ErrWalletNotConnected:
		message = "Wallet not connected"
	case ErrInvalidAmount:
		message = "Incorrect value. Cannot send."
	case ErrSubmissionPending:
		message = "A transfer is already pending"
	}

	o.setNotice(&Notice{
		Kind:      NoticeFailure,
		AttemptID: attemptID,
		Message:   message,
		At:        o.now(),
	})
	o.recorder.RecordSubmission(OutcomePrecondition, o.now().Sub(start))
	o.logger.WithFields(logrus.Fields{
		"attemptID": attemptID,
		"input":     err.Input,
	}).WithError(err).Info("transfer rejected")
	return err
}

func (o *Orchestrator) settleFailure(start time.Time, attemptID string, sig solana.Signature, err error) {
	notice := &Notice{
		Kind:      NoticeFailure,
		AttemptID: attemptID,
		Message:   "Transaction failed",
		Signature: sig,
		At:        o.now(),
	}

	outcome := OutcomeLedgerError
	var txErr *TransactionOutcomeError
	if errors.As(err, &txErr) {
		outcome = OutcomeTxFailed
		notice.Message = fmt.Sprintf("Transaction failed: %s", describeDetail(txErr.Detail))
		notice.Detail = txErr.Detail
		notice.ExplorerURL = ExplorerURL(o.cluster, sig)
	}

	o.setNotice(notice)
	o.recorder.RecordSubmission(outcome, o.now().Sub(start))
}

// MaxAmount returns the largest sendable amount in SOL: balance minus the fee estimate.
func (o *Orchestrator) MaxAmount() (string, bool) {
	o.mu.Lock()
	balance, fee := o.balance, o.fee
	o.mu.Unlock()

	if !balance.Set {
		return "", false
	}
	var reserved uint64
	if fee.Set {
		reserved = fee.Value
	}
	if balance.Value <= reserved {
		return AmountZero, true
	}
	return util.LamportsToSol(balance.Value - reserved), true
}

func (o *Orchestrator) setNotice(n *Notice) {
	o.mu.Lock()
	o.notice = n
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) storeBalance(gen uint64, v uint64, err error) {
	o.storeField(gen, FieldBalance, err, func(now time.Time) {
		o.balance.store(v, err, now)
	})
}

func (o *Orchestrator) storeFee(gen uint64, v uint64, err error) {
	o.storeField(gen, FieldFee, err, func(now time.Time) {
		o.fee.store(v, err, now)
	})
}

func (o *Orchestrator) storeConfirmationTime(gen uint64, v time.Duration, err error) {
	o.storeField(gen, FieldConfirmationTime, err, func(now time.Time) {
		o.confirmationTime.store(v, err, now)
	})
}

// storeField applies a display result unless the context changed since the
// fetch started.
func (o *Orchestrator) storeField(gen uint64, field string, err error, apply func(time.Time)) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.logger.WithField("field", field).Debug("dropping display result of a previous context")
		return
	}
	apply(o.now())
	o.mu.Unlock()

	o.recorder.RecordDisplayRefresh(field, err == nil)
	if err != nil {
		o.logger.WithField("field", field).WithError(err).Debug("display refresh failed")
	}
	o.publish()
}

// State is a point-in-time copy of the orchestrator state.
type State struct {
	Identity         solana.PublicKey
	Connected        bool
	Status           Status
	Pending          int
	Amount           string
	Balance          Field[uint64]
	Fee              Field[uint64]
	ConfirmationTime Field[time.Duration]
	Notice           *Notice
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	st := State{
		Status:           StatusIdle,
		Pending:          o.pending,
		Amount:           o.amount,
		Balance:          o.balance,
		Fee:              o.fee,
		ConfirmationTime: o.confirmationTime,
		Notice:           o.notice,
	}
	wallet := o.wallet
	o.mu.Unlock()

	if st.Pending > 0 {
		st.Status = StatusPending
	}
	st.Identity, st.Connected = identityOf(wallet)
	return st
}

func (o *Orchestrator) View() View {
	return NewView(o.State())
}

// Subscribe returns a channel receiving the latest view after every state
// change. Slow readers only see the most recent view.
func (o *Orchestrator) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	o.subMu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	o.subMu.Unlock()

	return ch, func() {
		o.subMu.Lock()
		delete(o.subscribers, id)
		o.subMu.Unlock()
	}
}

func (o *Orchestrator) publish() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if len(o.subscribers) == 0 {
		return
	}

	v := o.View()
	for _, ch := range o.subscribers {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
