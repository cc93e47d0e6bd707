package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/custody"
	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/observability"
)

// LaunchOrchestrator runs a launch end to end: compose the bundle, generate
// and sign the transactions, submit atomically, fall back to the sequential
// path once when the failure allows it, then persist the outcome.
type LaunchOrchestrator struct {
	store      LaunchStore
	composer   *BundleComposer
	signer     *TransactionSigner
	atomic     *AtomicSubmitter
	sequential *SequentialSubmitter
	generator  TransactionGenerator
	audit      *AuditService
}

func NewLaunchOrchestrator(store LaunchStore, composer *BundleComposer, signer *TransactionSigner, atomic *AtomicSubmitter, sequential *SequentialSubmitter, generator TransactionGenerator, audit *AuditService) *LaunchOrchestrator {
	return &LaunchOrchestrator{
		store:      store,
		composer:   composer,
		signer:     signer,
		atomic:     atomic,
		sequential: sequential,
		generator:  generator,
		audit:      audit,
	}
}

// Launch creates the asset and executes the coordinated buys for a project.
// A project launches from READY, or directly from DRAFT when it has no
// bundling wallets configured (creator-only launch). A project that is
// already LAUNCHED, or that carries a mint address from a prior attempt
// whose outcome is unknown, is refused with ErrAlreadyLaunched rather than
// risking a double launch.
//
// On submission failure the project status is left unchanged so the launch
// can be retried.
func (o *LaunchOrchestrator) Launch(ctx context.Context, projectID, creatorWalletID uuid.UUID, metadataURI string) (*models.BundleResult, error) {
	project, err := o.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("launch: load project: %w", err)
	}
	if project.Status == domain.ProjectStatusLaunched || project.MintAddress != nil {
		return nil, models.ErrAlreadyLaunched
	}
	creator, err := o.store.GetWallet(ctx, creatorWalletID)
	if err != nil {
		return nil, fmt.Errorf("launch: load creator wallet: %w", err)
	}

	assignments, err := o.store.ListAssignments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("launch: load assignments: %w", err)
	}
	funded := make([]models.FundingAssignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Funded {
			funded = append(funded, a)
		}
	}

	creatorOnly := project.WalletCount == 0 && len(assignments) == 0
	switch {
	case project.Status == domain.ProjectStatusReady:
	case project.Status == domain.ProjectStatusDraft && creatorOnly:
	default:
		return nil, &models.NotReadyError{Status: project.Status}
	}

	assetKey, err := custody.NewEphemeralKey()
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}
	mintAddress := assetKey.Address()

	comp, err := o.composer.Compose(project, funded, creator, mintAddress, metadataURI)
	if err != nil {
		return nil, err
	}

	unsigned, err := o.generator.Generate(ctx, comp.Intents)
	if err != nil {
		return nil, fmt.Errorf("launch: generate transactions: %w", err)
	}
	signed, err := o.signer.Sign(ctx, comp, unsigned, assetKey, creatorWalletID)
	if err != nil {
		return nil, err
	}

	result := &models.BundleResult{
		MintAddress:      mintAddress,
		CapacityExceeded: len(comp.Excluded) > 0,
	}
	for _, excluded := range comp.Excluded {
		result.ExcludedTargets = append(result.ExcludedTargets, excluded.WalletAddress)
	}

	signatures := make([]string, 0, len(signed))
	for _, tx := range signed {
		signatures = append(signatures, tx.Signature)
	}

	bundleID, submitErr := o.atomic.Submit(ctx, signed, creatorWalletID)
	if submitErr == nil {
		result.Success = true
		result.Path = domain.PathAtomic
		result.BundleID = bundleID
		result.Signatures = signatures
	} else {
		var atomicErr *models.AtomicSubmissionError
		if !errors.As(submitErr, &atomicErr) || !atomicErr.Retriable() {
			observability.IncrementLaunch(domain.PathAtomic, "failed")
			result.Error = submitErr.Error()
			return result, submitErr
		}
		zap.L().Warn("atomic submission failed, degrading to sequential",
			zap.String("project_id", projectID.String()),
			zap.String("kind", atomicErr.Kind),
			zap.Error(submitErr))

		// A not-confirmed bundle still has an id worth reporting.
		result.BundleID = atomicErr.BundleID

		confirmed, seqErr := o.sequential.Submit(ctx, signed)
		if seqErr != nil {
			observability.IncrementLaunch(domain.PathSequential, "failed")
			result.Signatures = confirmed
			result.Path = domain.PathSequential
			result.Error = seqErr.Error()
			return result, seqErr
		}
		result.Success = true
		result.Path = domain.PathSequential
		result.Signatures = confirmed
		if result.BundleID == "" && len(confirmed) > 0 {
			result.BundleID = confirmed[0]
		}
	}

	if err := o.persistLaunch(ctx, project, creator, comp, result, metadataURI); err != nil {
		return result, err
	}
	observability.IncrementLaunch(result.Path, "launched")
	zap.L().Info("project launched",
		zap.String("project_id", projectID.String()),
		zap.String("mint", mintAddress),
		zap.String("path", result.Path),
		zap.Int("buys", len(comp.Buyers)))
	return result, nil
}

func (o *LaunchOrchestrator) persistLaunch(ctx context.Context, project *models.Project, creator *models.Wallet, comp *models.Composition, result *models.BundleResult, metadataURI string) error {
	if !canTransition(project.Status, domain.ProjectStatusLaunched) {
		return fmt.Errorf("launch: invalid project status transition: %s -> %s", project.Status, domain.ProjectStatusLaunched)
	}
	rows, err := o.store.MarkProjectLaunched(ctx, project.ID, result.MintAddress, metadataURI)
	if err != nil {
		return fmt.Errorf("launch: mark launched: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("launch: mark launched: expected 1 row, updated %d", rows)
	}

	token := &models.Token{
		ID:           uuid.New(),
		OwnerAddress: creator.Address,
		Mint:         result.MintAddress,
		Name:         project.Name,
		Symbol:       project.Symbol,
		Supply:       domain.TokenSupplyBaseUnits,
		MetadataURI:  metadataURI,
		Status:       domain.TokenStatusLaunched,
	}
	if err := o.store.CreateToken(ctx, token); err != nil {
		return fmt.Errorf("launch: record token: %w", err)
	}

	mint := result.MintAddress
	for i, buyer := range comp.Buyers {
		meta := map[string]any{
			"buyer":    buyer.WalletAddress,
			"lamports": project.BuyAmountLamports,
		}
		if i+1 < len(result.Signatures) {
			meta["txId"] = result.Signatures[i+1]
		}
		o.audit.Record(ctx, domain.EventTokenBuy, &mint, meta)
	}
	o.audit.Record(ctx, domain.EventTokenLaunch, &mint, map[string]any{
		"projectId":    project.ID.String(),
		"method":       result.Path,
		"bundleId":     result.BundleID,
		"transactions": len(result.Signatures),
		"buys":         len(comp.Buyers),
		"excluded":     result.ExcludedTargets,
		"buyLamports":  project.BuyAmountLamports,
	})
	return nil
}
