package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/models"
)

// LedgerClient is the chain read/submit surface the core depends on.
type LedgerClient interface {
	GetBalance(ctx context.Context, address string) (int64, error)
	LatestBlockhash(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, wire string) (string, error)
	ConfirmTransaction(ctx context.Context, signature string, timeout time.Duration) error
}

// KeySigner is the narrow custody capability: sign on behalf of a wallet,
// never expose the key.
type KeySigner interface {
	SignMessage(ctx context.Context, walletID uuid.UUID, message []byte) ([]byte, error)
	Address(ctx context.Context, walletID uuid.UUID) (string, error)
}

// BundleService is the block builder's atomic submission surface.
type BundleService interface {
	SubmitBundle(ctx context.Context, wireTxs []string) (string, error)
	GetBundleStatus(ctx context.Context, bundleID string) (string, error)
}

// TransactionGenerator turns intents into unsigned wire payloads, one per
// intent, same order.
type TransactionGenerator interface {
	Generate(ctx context.Context, intents []models.TransactionIntent) ([]string, error)
}

// EventStore receives audit records.
type EventStore interface {
	AppendEvent(ctx context.Context, eventType string, mint *string, metadata []byte) error
}

// LaunchStore is the persistence contract of the launch orchestrator.
type LaunchStore interface {
	EventStore
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	ListAssignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error)
	MarkProjectLaunched(ctx context.Context, id uuid.UUID, mintAddress, metadataURI string) (int64, error)
	CreateToken(ctx context.Context, t *models.Token) error
}

// FundingStore is the persistence contract of the funding flow.
type FundingStore interface {
	EventStore
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	SetFundingPlan(ctx context.Context, id uuid.UUID, walletCount int32, buyAmountLamports int64) (int64, error)
	ReplaceAssignments(ctx context.Context, projectID uuid.UUID, walletIDs []uuid.UUID, amountLamports int64) error
	ListAssignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error)
	MarkAssignmentFunded(ctx context.Context, id uuid.UUID) (int64, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, status string) (int64, error)
	ListProjectsInStatus(ctx context.Context, status string, limit int32) ([]models.Project, error)
}
