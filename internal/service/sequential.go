package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tobenna/launchpad/internal/models"
)

// SequentialSubmitter is the degraded launch path: transactions are sent
// one at a time, each confirmed before the next, with a short delay between
// sends. Atomicity is lost; ordering is preserved.
type SequentialSubmitter struct {
	ledger         LedgerClient
	sendDelay      time.Duration
	confirmTimeout time.Duration
}

func NewSequentialSubmitter(lc LedgerClient, sendDelay, confirmTimeout time.Duration) *SequentialSubmitter {
	if sendDelay <= 0 {
		sendDelay = 500 * time.Millisecond
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	return &SequentialSubmitter{ledger: lc, sendDelay: sendDelay, confirmTimeout: confirmTimeout}
}

// Submit sends the signed transactions in bundle order. The first failure
// aborts the run: later transactions are never sent, and the error carries
// the failing position plus the signatures confirmed before it. A sent but
// unconfirmed transaction is not counted as confirmed.
func (s *SequentialSubmitter) Submit(ctx context.Context, signed []models.SignedTransaction) ([]string, error) {
	confirmed := make([]string, 0, len(signed))
	for i, tx := range signed {
		if i > 0 {
			select {
			case <-ctx.Done():
				return confirmed, &models.SequentialSubmissionError{FailedIndex: i, Signatures: confirmed, Err: ctx.Err()}
			case <-time.After(s.sendDelay):
			}
		}
		sig, err := s.ledger.SendTransaction(ctx, tx.Wire)
		if err != nil {
			return confirmed, &models.SequentialSubmissionError{FailedIndex: i, Signatures: confirmed, Err: err}
		}
		if err := s.ledger.ConfirmTransaction(ctx, sig, s.confirmTimeout); err != nil {
			return confirmed, &models.SequentialSubmissionError{FailedIndex: i, Signatures: confirmed, Err: err}
		}
		zap.L().Info("sequential transaction confirmed", zap.Int("position", i), zap.String("signature", sig))
		confirmed = append(confirmed, sig)
	}
	return confirmed, nil
}
