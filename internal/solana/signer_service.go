package solana

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/vultisig/solsend/internal/transfer"
)

// KeypairWallet is a wallet backed by a local keypair. Its identity is only
// exposed while connected.
type KeypairWallet struct {
	key solana.PrivateKey

	mu        sync.RWMutex
	connected bool
}

var _ transfer.Wallet = (*KeypairWallet)(nil)

func NewKeypairWallet(key solana.PrivateKey) *KeypairWallet {
	return &KeypairWallet{key: key}
}

// LoadPrivateKey reads a solana-keygen JSON file, or decodes a base58 secret
// when no path is given.
func LoadPrivateKey(path, base58Secret string) (solana.PrivateKey, error) {
	switch {
	case path != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file: %w", err)
		}
		return key, nil
	case base58Secret != "":
		key, err := solana.PrivateKeyFromBase58(base58Secret)
		if err != nil {
			return nil, fmt.Errorf("failed to decode private key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("no keypair configured")
	}
}

func (w *KeypairWallet) Connect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
}

func (w *KeypairWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
}

func (w *KeypairWallet) PublicKey() (solana.PublicKey, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.connected {
		return solana.PublicKey{}, false
	}
	return w.key.PublicKey(), true
}

func (w *KeypairWallet) SignAndSubmit(
	ctx context.Context,
	tx *solana.Transaction,
	conn transfer.Submitter,
	opts transfer.SubmitOptions,
) (solana.Signature, error) {
	owner, ok := w.PublicKey()
	if !ok {
		return solana.Signature{}, transfer.ErrWalletNotConnected
	}

	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(owner) {
		return solana.Signature{}, fmt.Errorf("transaction fee payer is not the connected wallet")
	}

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := conn.SendTransaction(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to submit transaction: %w", err)
	}
	return sig, nil
}
