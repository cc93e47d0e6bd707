package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
)

// FundingService manages a project's bundling wallets: plan the funding,
// disperse SOL into the assigned wallets, and verify balances until every
// assignment is funded and the project is READY.
type FundingService struct {
	store     FundingStore
	disperser *DisperseService
	ledger    LedgerClient
}

func NewFundingService(store FundingStore, disperser *DisperseService, lc LedgerClient) *FundingService {
	return &FundingService{store: store, disperser: disperser, ledger: lc}
}

// FundingStatus summarizes how far along a project's funding is.
type FundingStatus struct {
	Total     int  `json:"total"`
	Funded    int  `json:"funded"`
	AllFunded bool `json:"all_funded"`
}

// ConfigurePlan assigns bundling wallets to a DRAFT project and moves it to
// FUNDING. Per-wallet funding covers the buy amount plus a fee margin.
func (s *FundingService) ConfigurePlan(ctx context.Context, projectID uuid.UUID, walletIDs []uuid.UUID, buyAmountLamports int64) error {
	if len(walletIDs) == 0 {
		return fmt.Errorf("configure funding: at least one wallet required")
	}
	if buyAmountLamports <= 0 {
		return fmt.Errorf("configure funding: buy amount must be positive")
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("configure funding: %w", err)
	}
	if project.Status != domain.ProjectStatusDraft {
		return fmt.Errorf("configure funding: project is %s, want %s", project.Status, domain.ProjectStatusDraft)
	}

	rows, err := s.store.SetFundingPlan(ctx, projectID, int32(len(walletIDs)), buyAmountLamports)
	if err != nil {
		return fmt.Errorf("configure funding: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("configure funding: expected 1 row, updated %d", rows)
	}
	perWallet := buyAmountLamports + domain.PerTransferFeeLamports + domain.FundingMarginLamports
	if err := s.store.ReplaceAssignments(ctx, projectID, walletIDs, perWallet); err != nil {
		return fmt.Errorf("configure funding: %w", err)
	}
	return transitionProjectStatus(ctx, s.store, projectID, project.Status, domain.ProjectStatusFunding)
}

// Fund disperses SOL from the funding wallet into every unfunded
// assignment, marking each confirmed transfer as funded. When the last
// assignment funds, the project moves to READY.
func (s *FundingService) Fund(ctx context.Context, projectID, fundingWalletID uuid.UUID) ([]models.DispersalResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fund project: %w", err)
	}
	if project.Status != domain.ProjectStatusFunding {
		return nil, fmt.Errorf("fund project: project is %s, want %s", project.Status, domain.ProjectStatusFunding)
	}
	assignments, err := s.store.ListAssignments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fund project: %w", err)
	}

	pending := make([]models.FundingAssignment, 0, len(assignments))
	for _, a := range assignments {
		if !a.Funded {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil, s.promoteIfFunded(ctx, project, assignments)
	}

	targets := make([]string, len(pending))
	for i, a := range pending {
		targets[i] = a.WalletAddress
	}
	// Assignments share one per-wallet amount; use the first.
	results, err := s.disperser.Disperse(ctx, fundingWalletID, targets, pending[0].AmountLamports)
	if err != nil {
		return results, err
	}

	for i, result := range results {
		if !result.Success {
			continue
		}
		if _, err := s.store.MarkAssignmentFunded(ctx, pending[i].ID); err != nil {
			zap.L().Error("fund project: mark assignment funded",
				zap.String("assignment_id", pending[i].ID.String()),
				zap.Error(err))
			continue
		}
		pending[i].Funded = true
	}

	refreshed, err := s.store.ListAssignments(ctx, projectID)
	if err != nil {
		return results, fmt.Errorf("fund project: %w", err)
	}
	return results, s.promoteIfFunded(ctx, project, refreshed)
}

// Verify checks on-chain balances for a FUNDING project and marks
// assignments whose wallets already hold the required amount. Useful when
// wallets were funded out of band or a prior run crashed between transfer
// and bookkeeping.
func (s *FundingService) Verify(ctx context.Context, projectID uuid.UUID) (*FundingStatus, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("verify funding: %w", err)
	}
	assignments, err := s.store.ListAssignments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("verify funding: %w", err)
	}

	status := &FundingStatus{Total: len(assignments)}
	for i, a := range assignments {
		if a.Funded {
			status.Funded++
			continue
		}
		balance, err := s.ledger.GetBalance(ctx, a.WalletAddress)
		if err != nil {
			zap.L().Warn("verify funding: balance check failed",
				zap.String("address", a.WalletAddress),
				zap.Error(err))
			continue
		}
		if balance < a.AmountLamports {
			continue
		}
		if _, err := s.store.MarkAssignmentFunded(ctx, a.ID); err != nil {
			return nil, fmt.Errorf("verify funding: %w", err)
		}
		assignments[i].Funded = true
		status.Funded++
	}
	status.AllFunded = status.Total > 0 && status.Funded == status.Total

	if status.AllFunded && project.Status == domain.ProjectStatusFunding {
		if err := transitionProjectStatus(ctx, s.store, projectID, project.Status, domain.ProjectStatusReady); err != nil {
			return status, err
		}
		zap.L().Info("project funding complete", zap.String("project_id", projectID.String()))
	}
	return status, nil
}

func (s *FundingService) promoteIfFunded(ctx context.Context, project *models.Project, assignments []models.FundingAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	for _, a := range assignments {
		if !a.Funded {
			return nil
		}
	}
	if err := transitionProjectStatus(ctx, s.store, project.ID, project.Status, domain.ProjectStatusReady); err != nil {
		return err
	}
	zap.L().Info("project funding complete", zap.String("project_id", project.ID.String()))
	return nil
}
