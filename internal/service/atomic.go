package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/blockbuilder"
	"github.com/tobenna/launchpad/internal/ledger"
	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/observability"
)

// Block builder tip accounts. The tip transfer lands on one of these,
// picked at random per submission.
var tipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// AtomicSubmitter hands a signed bundle to the block builder with a tip
// transaction appended, then polls until the bundle lands or the attempt
// budget runs out.
type AtomicSubmitter struct {
	builder      BundleService
	ledger       LedgerClient
	signer       KeySigner
	tipLamports  int64
	pollInterval time.Duration
	pollAttempts int
}

func NewAtomicSubmitter(builder BundleService, lc LedgerClient, signer KeySigner, tipLamports int64, pollInterval time.Duration, pollAttempts int) *AtomicSubmitter {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 15
	}
	return &AtomicSubmitter{
		builder:      builder,
		ledger:       lc,
		signer:       signer,
		tipLamports:  tipLamports,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

// Submit appends the tip transfer to the signed transactions and submits
// the whole set as one atomic bundle. The tip is paid by the tip wallet
// and added after signing so the payload transactions are never reordered.
// Failures are classified: ErrRateLimited from the builder maps to
// rate_limited, an accepted bundle that never confirms maps to
// not_confirmed, anything else is rejected.
func (s *AtomicSubmitter) Submit(ctx context.Context, signed []models.SignedTransaction, tipWalletID uuid.UUID) (string, error) {
	tipWire, err := s.buildTip(ctx, tipWalletID)
	if err != nil {
		return "", &models.AtomicSubmissionError{Kind: models.AtomicRejected, Err: fmt.Errorf("build tip: %w", err)}
	}

	wireTxs := make([]string, 0, len(signed)+1)
	for _, tx := range signed {
		wireTxs = append(wireTxs, tx.Wire)
	}
	wireTxs = append(wireTxs, tipWire)

	bundleID, err := s.builder.SubmitBundle(ctx, wireTxs)
	if err != nil {
		if errors.Is(err, blockbuilder.ErrRateLimited) {
			return "", &models.AtomicSubmissionError{Kind: models.AtomicRateLimited, Err: err}
		}
		return "", &models.AtomicSubmissionError{Kind: models.AtomicRejected, Err: err}
	}

	zap.L().Info("bundle submitted", zap.String("bundle_id", bundleID), zap.Int("transactions", len(wireTxs)))

	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", &models.AtomicSubmissionError{Kind: models.AtomicNotConfirmed, BundleID: bundleID, Err: ctx.Err()}
		case <-time.After(s.pollInterval):
		}
		status, err := s.builder.GetBundleStatus(ctx, bundleID)
		if err != nil {
			observability.IncrementBundlePoll("error")
			zap.L().Warn("bundle status poll failed", zap.String("bundle_id", bundleID), zap.Error(err))
			continue
		}
		observability.IncrementBundlePoll(status)
		if status == blockbuilder.StatusConfirmed || status == blockbuilder.StatusFinalized {
			return bundleID, nil
		}
	}
	return "", &models.AtomicSubmissionError{Kind: models.AtomicNotConfirmed, BundleID: bundleID}
}

func (s *AtomicSubmitter) buildTip(ctx context.Context, tipWalletID uuid.UUID) (string, error) {
	fromAddress, err := s.signer.Address(ctx, tipWalletID)
	if err != nil {
		return "", err
	}
	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	tipAccount := tipAccounts[rand.Intn(len(tipAccounts))]
	tx, err := ledger.NewTransferTransaction(blockhash, fromAddress, tipAccount, s.tipLamports)
	if err != nil {
		return "", err
	}
	sig, err := s.signer.SignMessage(ctx, tipWalletID, tx.Message)
	if err != nil {
		return "", err
	}
	if err := tx.SetSignature(0, sig); err != nil {
		return "", err
	}
	return tx.Encode(), nil
}
