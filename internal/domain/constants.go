package domain

// Project lifecycle statuses. A project only ever moves forward through
// DRAFT -> FUNDING -> READY -> LAUNCHED.
const (
	ProjectStatusDraft    = "DRAFT"
	ProjectStatusFunding  = "FUNDING"
	ProjectStatusReady    = "READY"
	ProjectStatusLaunched = "LAUNCHED"
)

// Event log types.
const (
	EventDisperse    = "DISPERSE"
	EventTokenBuy    = "TOKEN_BUY"
	EventTokenLaunch = "TOKEN_LAUNCH"
)

// Submission paths recorded on a launch result.
const (
	PathAtomic     = "atomic"
	PathSequential = "sequential"
)

// Token record statuses.
const (
	TokenStatusLaunched = "launched"
)

const (
	// LamportsPerSOL is the base-unit scale of the ledger's native currency.
	LamportsPerSOL = 1_000_000_000

	// PerTransferFeeLamports is the flat fee estimate charged per transfer,
	// used when sizing a dispersal up front.
	PerTransferFeeLamports = 5_000

	// FundingMarginLamports is added on top of each target's buy amount so
	// the target can pay its own purchase fee.
	FundingMarginLamports = 10_000

	// MaxBundleTransactions is the block-builder's hard cap per bundle:
	// one creation plus up to four purchases.
	MaxBundleTransactions = 5

	// DefaultTipLamports is the tip paid to the block-builder for atomic
	// inclusion (0.005 SOL).
	DefaultTipLamports = 5_000_000

	// TokenSupplyBaseUnits is the standard supply minted per launch:
	// 1B tokens at 10^6 base units each.
	TokenSupplyBaseUnits = 1_000_000_000 * 1_000_000
)

// Priority fees and slippage passed through to the transaction generation
// service, denominated the way that service expects them.
const (
	CreatePriorityFeeSOL = 0.0005
	BuyPriorityFeeSOL    = 0.0001
	DefaultSlippagePct   = 10
)
