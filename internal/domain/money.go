package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount represents a quantity of the ledger's native currency.
// It is stored as BIGINT lamports (10^-9 SOL) to avoid floating point errors.
type Amount struct {
	Lamports int64
}

// NewAmount creates an Amount from lamports.
func NewAmount(lamports int64) Amount {
	return Amount{Lamports: lamports}
}

// AmountFromSOL converts a decimal SOL value to lamports, rounding down.
func AmountFromSOL(sol decimal.Decimal) Amount {
	return Amount{Lamports: sol.Mul(decimal.NewFromInt(LamportsPerSOL)).IntPart()}
}

// ToSOL converts the lamport amount to a decimal SOL value.
func (a Amount) ToSOL() decimal.Decimal {
	return decimal.NewFromInt(a.Lamports).Div(decimal.NewFromInt(LamportsPerSOL))
}

// Mul returns the amount scaled by an integer count. Used for sizing
// dispersals: amountPerTarget * targets.
func (a Amount) Mul(n int64) Amount {
	return Amount{Lamports: a.Lamports * n}
}

// Add returns the sum of two amounts.
func (a Amount) Add(b Amount) Amount {
	return Amount{Lamports: a.Lamports + b.Lamports}
}

// DispersalCost is the total balance a funding account must hold to send
// amountPerTarget to each of n targets, including the flat per-transfer fee.
func DispersalCost(amountPerTarget Amount, n int) Amount {
	return amountPerTarget.Mul(int64(n)).Add(NewAmount(PerTransferFeeLamports).Mul(int64(n)))
}

// String renders the amount in SOL for logs and API responses.
func (a Amount) String() string {
	return fmt.Sprintf("%s SOL", a.ToSOL().StringFixed(9))
}
