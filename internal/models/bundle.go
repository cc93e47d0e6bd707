package models

import "github.com/google/uuid"

// Intent kinds. A bundle carries exactly one creation intent at position 0
// and up to four purchase intents after it.
const (
	IntentCreate = "create"
	IntentBuy    = "buy"
)

// TokenMetadata is the display identity embedded in a creation intent.
type TokenMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// TransactionIntent is an unsigned description of one ledger operation,
// handed to the transaction generation service verbatim.
type TransactionIntent struct {
	PublicKey        string         `json:"publicKey"`
	Action           string         `json:"action"`
	Mint             string         `json:"mint"`
	TokenMetadata    *TokenMetadata `json:"tokenMetadata,omitempty"`
	AmountSOL        string         `json:"amount"`
	DenominatedInSol string         `json:"denominatedInSol"`
	SlippagePct      int            `json:"slippage"`
	PriorityFeeSOL   float64        `json:"priorityFee"`
	Pool             string         `json:"pool"`

	// WalletID identifies the custody key that must sign the generated
	// transaction. Nil for the creation intent, which is signed by the
	// creator plus the ephemeral asset key.
	WalletID *uuid.UUID `json:"-"`
}

// SignedTransaction is one wire-ready transaction plus its primary
// signature. Produced once per intent and never mutated afterwards.
type SignedTransaction struct {
	Wire      string // base58 wire encoding
	Signature string // base58 primary signature
}

// Composition is the ordered intent list produced by the bundle composer,
// with the funded targets that were selected and any that overflowed the
// bundle cap.
type Composition struct {
	Intents  []TransactionIntent
	Buyers   []FundingAssignment
	Excluded []FundingAssignment
}

// DispersalResult is the per-target outcome of one dispersal run.
type DispersalResult struct {
	Address   string `json:"address"`
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BundleResult is the outcome of one launch attempt.
type BundleResult struct {
	Success          bool     `json:"success"`
	MintAddress      string   `json:"mint_address,omitempty"`
	BundleID         string   `json:"bundle_id,omitempty"`
	Signatures       []string `json:"signatures,omitempty"`
	Path             string   `json:"path,omitempty"`
	CapacityExceeded bool     `json:"capacity_exceeded,omitempty"`
	ExcludedTargets  []string `json:"excluded_targets,omitempty"`
	Error            string   `json:"error,omitempty"`
}
