package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAmount_ToSOL(t *testing.T) {
	a := NewAmount(50_000_000) // 0.05 SOL
	assert.Equal(t, "0.05", a.ToSOL().String())
}

func TestAmountFromSOL(t *testing.T) {
	sol := decimal.NewFromFloat(0.05)
	a := AmountFromSOL(sol)
	assert.Equal(t, int64(50_000_000), a.Lamports)
}

func TestDispersalCost(t *testing.T) {
	// 10 targets at 0.05 SOL each plus 0.000005 SOL fee per transfer.
	cost := DispersalCost(NewAmount(50_000_000), 10)
	assert.Equal(t, int64(500_050_000), cost.Lamports)
	assert.Equal(t, "0.50005", cost.ToSOL().String())
}

func TestAmount_String(t *testing.T) {
	a := NewAmount(5_000_000)
	assert.Equal(t, "0.005000000 SOL", a.String())
}
