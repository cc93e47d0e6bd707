package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/blockbuilder"
	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
)

type launchHarness struct {
	store     *memStore
	keys      *stubSigner
	ledger    *stubLedger
	builder   *stubBuilder
	generator *stubGenerator
	orch      *LaunchOrchestrator
	projectID uuid.UUID
	creatorID uuid.UUID
}

func newLaunchHarness(t *testing.T, buyers int) *launchHarness {
	t.Helper()
	h := &launchHarness{
		store:     newMemStore(),
		keys:      newStubSigner(),
		ledger:    newStubLedger(),
		builder:   &stubBuilder{bundleID: "bundle-1", statuses: []string{blockbuilder.StatusConfirmed}},
		generator: &stubGenerator{},
	}

	h.creatorID = h.keys.addWallet(t)
	creatorAddr, err := h.keys.Address(context.Background(), h.creatorID)
	require.NoError(t, err)
	h.store.wallets[h.creatorID] = &models.Wallet{ID: h.creatorID, Address: creatorAddr, IsCreator: true}

	h.projectID = uuid.New()
	status := domain.ProjectStatusReady
	if buyers == 0 {
		status = domain.ProjectStatusDraft
	}
	h.store.projects[h.projectID] = &models.Project{
		ID:                h.projectID,
		Name:              "Test Coin",
		Symbol:            "TEST",
		BuyAmountLamports: 50_000_000,
		WalletCount:       int32(buyers),
		Status:            status,
	}

	payloads := []string{unsignedWire(t, 2, "create-message")}
	for i := 0; i < buyers; i++ {
		buyerID := h.keys.addWallet(t)
		addr, err := h.keys.Address(context.Background(), buyerID)
		require.NoError(t, err)
		h.store.wallets[buyerID] = &models.Wallet{ID: buyerID, Address: addr}
		h.store.assignments[h.projectID] = append(h.store.assignments[h.projectID], models.FundingAssignment{
			ID:            uuid.New(),
			ProjectID:     h.projectID,
			WalletID:      buyerID,
			WalletAddress: addr,
			Funded:        true,
		})
		payloads = append(payloads, unsignedWire(t, 1, "buy-message"))
	}
	h.generator.payloads = payloads

	audit := NewAuditService(h.store)
	h.orch = NewLaunchOrchestrator(
		h.store,
		NewBundleComposer(),
		NewTransactionSigner(h.keys),
		NewAtomicSubmitter(h.builder, h.ledger, h.keys, 5_000_000, time.Millisecond, 3),
		NewSequentialSubmitter(h.ledger, time.Millisecond, time.Second),
		h.generator,
		audit,
	)
	return h
}

func (h *launchHarness) launch(t *testing.T) (*models.BundleResult, error) {
	t.Helper()
	return h.orch.Launch(context.Background(), h.projectID, h.creatorID, "ipfs://meta")
}

func TestLaunchAtomicPath(t *testing.T) {
	h := newLaunchHarness(t, 2)

	result, err := h.launch(t)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, domain.PathAtomic, result.Path)
	require.Equal(t, "bundle-1", result.BundleID)
	require.NotEmpty(t, result.MintAddress)
	require.Len(t, result.Signatures, 3)
	require.False(t, result.CapacityExceeded)

	project := h.store.projects[h.projectID]
	require.Equal(t, domain.ProjectStatusLaunched, project.Status)
	require.NotNil(t, project.MintAddress)
	require.Equal(t, result.MintAddress, *project.MintAddress)

	require.Len(t, h.store.tokens, 1)
	require.Equal(t, result.MintAddress, h.store.tokens[0].Mint)
	require.Equal(t, domain.TokenStatusLaunched, h.store.tokens[0].Status)

	// Two buy events plus the launch summary.
	require.Len(t, h.store.events, 3)
	require.Equal(t, domain.EventTokenLaunch, h.store.events[2])
}

func TestLaunchFallsBackToSequential(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.builder.submitErr = blockbuilder.ErrRateLimited

	result, err := h.launch(t)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, domain.PathSequential, result.Path)
	require.Equal(t, "sig-0", result.BundleID, "rate-limited submits never got a bundle id; the create signature stands in")
	require.Len(t, result.Signatures, 3)
	require.Equal(t, domain.ProjectStatusLaunched, h.store.projects[h.projectID].Status)
}

func TestLaunchNotConfirmedKeepsBundleID(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.builder.statuses = nil // every poll reports pending

	result, err := h.launch(t)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, domain.PathSequential, result.Path)
	require.Equal(t, "bundle-1", result.BundleID)

	launchMeta := string(h.store.eventMeta[len(h.store.eventMeta)-1])
	require.Contains(t, launchMeta, `"bundleId":"bundle-1"`)
}

func TestLaunchRejectedBundleDoesNotFallBack(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.builder.submitErr = errors.New("bundle rejected")

	result, err := h.launch(t)
	var atomicErr *models.AtomicSubmissionError
	require.ErrorAs(t, err, &atomicErr)
	require.Equal(t, models.AtomicRejected, atomicErr.Kind)
	require.False(t, result.Success)
	require.Zero(t, h.ledger.sends, "rejected bundles must not degrade to sequential")
	require.Equal(t, domain.ProjectStatusReady, h.store.projects[h.projectID].Status)
}

func TestLaunchSequentialFailureLeavesStatus(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.builder.submitErr = blockbuilder.ErrRateLimited
	h.ledger.confirmErrs["sig-1"] = errors.New("confirmation timeout")

	result, err := h.launch(t)
	var seqErr *models.SequentialSubmissionError
	require.ErrorAs(t, err, &seqErr)
	require.Equal(t, 1, seqErr.FailedIndex)
	require.False(t, result.Success)
	require.Equal(t, domain.PathSequential, result.Path)
	require.Equal(t, []string{"sig-0"}, result.Signatures)
	require.Equal(t, domain.ProjectStatusReady, h.store.projects[h.projectID].Status)
	require.Empty(t, h.store.tokens)
}

func TestLaunchCreatorOnlyFromDraft(t *testing.T) {
	h := newLaunchHarness(t, 0)

	result, err := h.launch(t)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Signatures, 1)
	require.Equal(t, domain.ProjectStatusLaunched, h.store.projects[h.projectID].Status)
}

func TestLaunchNotReady(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.store.projects[h.projectID].Status = domain.ProjectStatusFunding

	_, err := h.launch(t)
	var notReady *models.NotReadyError
	require.ErrorAs(t, err, &notReady)
	require.Equal(t, domain.ProjectStatusFunding, notReady.Status)
}

func TestLaunchDraftWithWalletsNotReady(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.store.projects[h.projectID].Status = domain.ProjectStatusDraft

	_, err := h.launch(t)
	var notReady *models.NotReadyError
	require.ErrorAs(t, err, &notReady)
}

func TestLaunchAlreadyLaunched(t *testing.T) {
	h := newLaunchHarness(t, 2)
	h.store.projects[h.projectID].Status = domain.ProjectStatusLaunched

	_, err := h.launch(t)
	require.ErrorIs(t, err, models.ErrAlreadyLaunched)
}

func TestLaunchRefusedAfterUnknownOutcome(t *testing.T) {
	h := newLaunchHarness(t, 2)
	mint := "existing-mint"
	h.store.projects[h.projectID].MintAddress = &mint

	_, err := h.launch(t)
	require.ErrorIs(t, err, models.ErrAlreadyLaunched)
	require.Empty(t, h.builder.submitted)
}

func TestLaunchReportsExcludedTargets(t *testing.T) {
	h := newLaunchHarness(t, 6)
	// Regenerate payloads for the capped bundle: create plus four buys.
	h.generator.payloads = h.generator.payloads[:5]

	result, err := h.launch(t)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, result.CapacityExceeded)
	require.Len(t, result.ExcludedTargets, 2)
	require.Len(t, result.Signatures, 5)
}
