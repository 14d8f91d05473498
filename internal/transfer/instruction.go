package transfer

import (
	"fmt"
	"net/url"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

const explorerBaseURL = "https://explorer.solana.com/tx/"

// Instruction builds the single system transfer of the request.
func (r Request) Instruction() solana.Instruction {
	return transferInstruction(r.Sender, r.Recipient, r.Lamports)
}

func transferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(
		lamports,
		from,
		to,
	).Build()
}

// NewTransferTransaction builds a native transfer anchored to blockhash and paid by from.
func NewTransferTransaction(
	from solana.PublicKey,
	to solana.PublicKey,
	lamports uint64,
	blockhash solana.Hash,
) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{transferInstruction(from, to, lamports)},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// ExplorerURL links a signature on the Solana explorer for the given cluster.
func ExplorerURL(cluster string, sig solana.Signature) string {
	u := explorerBaseURL + sig.String()
	if cluster == "" || cluster == "mainnet-beta" {
		return u
	}
	return u + "?cluster=" + url.QueryEscape(cluster)
}
