package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is a ledger account under custody. The encrypted signing key never
// leaves the custody package; callers hold only the wallet ID and address.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Address   string    `json:"address"`
	Label     string    `json:"label"`
	IsCreator bool      `json:"is_creator"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is the aggregate root for one launch attempt.
type Project struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Name               string    `json:"name"`
	Symbol             string    `json:"symbol"`
	Description        string    `json:"description"`
	BuyAmountLamports  int64     `json:"buy_amount_lamports"`
	WalletCount        int32     `json:"wallet_count"`
	Status             string    `json:"status"`
	MintAddress        *string   `json:"mint_address,omitempty"`
	MetadataURI        *string   `json:"metadata_uri,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FundingAssignment ties a target wallet to a project with the amount it
// must hold before launch.
type FundingAssignment struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	WalletID       uuid.UUID `json:"wallet_id"`
	WalletAddress  string    `json:"wallet_address"`
	AmountLamports int64     `json:"amount_lamports"`
	Funded         bool      `json:"funded"`
	CreatedAt      time.Time `json:"created_at"`
}

// Token is the durable record of a launched asset.
type Token struct {
	ID           uuid.UUID `json:"id"`
	OwnerAddress string    `json:"owner_address"`
	Mint         string    `json:"mint"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	Supply       int64     `json:"supply"`
	MetadataURI  string    `json:"metadata_uri"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// EventRecord is one immutable audit log entry.
type EventRecord struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Mint      *string   `json:"mint,omitempty"`
	Metadata  []byte    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
