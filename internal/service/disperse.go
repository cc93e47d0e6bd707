package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/ledger"
	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/observability"
)

// DisperseService moves SOL from a funding wallet to target accounts,
// one confirmed transfer at a time.
type DisperseService struct {
	ledger         LedgerClient
	signer         KeySigner
	audit          *AuditService
	confirmTimeout time.Duration
}

func NewDisperseService(lc LedgerClient, signer KeySigner, audit *AuditService, confirmTimeout time.Duration) *DisperseService {
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	return &DisperseService{ledger: lc, signer: signer, audit: audit, confirmTimeout: confirmTimeout}
}

// Disperse sends amountPerTarget lamports to every target address. The
// funding wallet's balance is checked against the full cost, transfer fees
// included, before anything is sent. On insufficient funds no transfer is
// attempted: every target gets a failure result and ErrInsufficientFunds is
// returned alongside them.
//
// Transfers run sequentially and each one is confirmed before the next
// starts. A single failed transfer does not abort the run; it is recorded
// in that target's result.
func (s *DisperseService) Disperse(ctx context.Context, fundingWalletID uuid.UUID, targets []string, amountPerTarget int64) ([]models.DispersalResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	if amountPerTarget <= 0 {
		return nil, fmt.Errorf("disperse: amount per target must be positive, got %d", amountPerTarget)
	}

	fromAddress, err := s.signer.Address(ctx, fundingWalletID)
	if err != nil {
		return nil, fmt.Errorf("disperse: resolve funding wallet: %w", err)
	}

	balance, err := s.ledger.GetBalance(ctx, fromAddress)
	if err != nil {
		return nil, fmt.Errorf("disperse: fetch balance: %w", err)
	}

	required := domain.DispersalCost(domain.NewAmount(amountPerTarget), len(targets))
	if balance < required.Lamports {
		msg := fmt.Sprintf("insufficient funds: have %s, need %s", domain.NewAmount(balance), required)
		results := make([]models.DispersalResult, len(targets))
		for i, target := range targets {
			results[i] = models.DispersalResult{Address: target, Success: false, Error: msg}
		}
		observability.IncrementDispersal("insufficient_funds")
		return results, models.ErrInsufficientFunds
	}

	results := make([]models.DispersalResult, 0, len(targets))
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := models.DispersalResult{Address: target}
		sig, err := s.transfer(ctx, fundingWalletID, fromAddress, target, amountPerTarget)
		if err != nil {
			result.Error = err.Error()
			observability.IncrementDispersal("failed")
			zap.L().Warn("disperse: transfer failed",
				zap.String("target", target),
				zap.Error(err))
		} else {
			result.Success = true
			result.Signature = sig
			observability.IncrementDispersal("confirmed")
			s.audit.Record(ctx, domain.EventDisperse, nil, map[string]any{
				"from":     fromAddress,
				"to":       target,
				"lamports": amountPerTarget,
				"txId":     sig,
			})
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *DisperseService) transfer(ctx context.Context, fromID uuid.UUID, fromAddress, toAddress string, lamports int64) (string, error) {
	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}
	tx, err := ledger.NewTransferTransaction(blockhash, fromAddress, toAddress, lamports)
	if err != nil {
		return "", fmt.Errorf("build transfer: %w", err)
	}
	sig, err := s.signer.SignMessage(ctx, fromID, tx.Message)
	if err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}
	if err := tx.SetSignature(0, sig); err != nil {
		return "", fmt.Errorf("attach signature: %w", err)
	}
	txID, err := s.ledger.SendTransaction(ctx, tx.Encode())
	if err != nil {
		return "", fmt.Errorf("send transfer: %w", err)
	}
	if err := s.ledger.ConfirmTransaction(ctx, txID, s.confirmTimeout); err != nil {
		return "", fmt.Errorf("confirm transfer %s: %w", txID, err)
	}
	return txID, nil
}
