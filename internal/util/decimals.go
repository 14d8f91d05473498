package util

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// SolDecimals is the number of decimals of native SOL: 1 SOL = 10^9 lamports.
const SolDecimals = 9

const LamportsPerSol uint64 = 1_000_000_000

// maxBaseUnitDigits is the number of digits of the largest uint64.
const maxBaseUnitDigits = 20

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// ToBaseUnits converts a human-readable amount to base units
// e.g., "1.5" SOL (9 decimals) -> 1500000000
// Digits beyond the token precision are truncated.
func ToBaseUnits(amount string, decimals int) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("amount cannot be negative: %s", amount)
	}

	if d.IsZero() {
		return 0, nil
	}

	// bound the magnitude before shifting so huge exponents never expand
	digits := int64(len(d.Coefficient().String()))
	intDigits := int64(d.Exponent()) + int64(decimals) + digits
	if intDigits > maxBaseUnitDigits {
		return 0, fmt.Errorf("amount %s overflows base units", amount)
	}
	if intDigits <= 0 {
		return 0, nil
	}

	base := d.Shift(int32(decimals)).Truncate(0)
	if base.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("amount %s overflows base units", amount)
	}

	return base.BigInt().Uint64(), nil
}

// FromBaseUnits converts base units to a human-readable amount
// e.g., 1500000000 with 9 decimals -> "1.5"
func FromBaseUnits(amount uint64, decimals int) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).String()
}

// LamportsToSol formats lamports as a SOL amount.
func LamportsToSol(lamports uint64) string {
	return FromBaseUnits(lamports, SolDecimals)
}

// SolToLamports parses a SOL amount into lamports.
func SolToLamports(amount string) (uint64, error) {
	return ToBaseUnits(amount, SolDecimals)
}
