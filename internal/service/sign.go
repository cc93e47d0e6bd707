package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/custody"
	"github.com/tobenna/launchpad/internal/ledger"
	"github.com/tobenna/launchpad/internal/models"
)

// TransactionSigner signs generated bundle transactions strictly in order.
//
// Signer slot contract: the creation transaction at position 0 carries two
// signature slots, the creator (fee payer, primary signature) at slot 0 and
// the ephemeral asset key at slot 1. Every purchase transaction carries a
// single slot for its buyer.
type TransactionSigner struct {
	signer KeySigner
}

func NewTransactionSigner(signer KeySigner) *TransactionSigner {
	return &TransactionSigner{signer: signer}
}

func (s *TransactionSigner) Sign(ctx context.Context, comp *models.Composition, unsigned []string, assetKey *custody.EphemeralKey, creatorWalletID uuid.UUID) ([]models.SignedTransaction, error) {
	if len(unsigned) != len(comp.Intents) {
		return nil, fmt.Errorf("sign: got %d transactions for %d intents", len(unsigned), len(comp.Intents))
	}

	signed := make([]models.SignedTransaction, 0, len(unsigned))
	for i, wire := range unsigned {
		tx, err := ledger.DecodeTransaction(wire)
		if err != nil {
			return nil, &models.SigningError{Position: i, Err: err}
		}
		if i == 0 {
			if err := s.signCreation(ctx, tx, assetKey, creatorWalletID); err != nil {
				return nil, &models.SigningError{Position: i, Err: err}
			}
		} else {
			buyer := comp.Intents[i].WalletID
			if buyer == nil {
				return nil, &models.SigningError{Position: i, Err: fmt.Errorf("purchase intent has no wallet")}
			}
			sig, err := s.signer.SignMessage(ctx, *buyer, tx.Message)
			if err != nil {
				return nil, &models.SigningError{Position: i, Err: err}
			}
			if err := tx.SetSignature(0, sig); err != nil {
				return nil, &models.SigningError{Position: i, Err: err}
			}
		}
		primary, err := tx.PrimarySignature()
		if err != nil {
			return nil, &models.SigningError{Position: i, Err: err}
		}
		signed = append(signed, models.SignedTransaction{Wire: tx.Encode(), Signature: primary})
	}
	return signed, nil
}

func (s *TransactionSigner) signCreation(ctx context.Context, tx *ledger.Transaction, assetKey *custody.EphemeralKey, creatorWalletID uuid.UUID) error {
	if len(tx.Signatures) < 2 {
		return fmt.Errorf("creation transaction has %d signature slots, need 2", len(tx.Signatures))
	}
	creatorSig, err := s.signer.SignMessage(ctx, creatorWalletID, tx.Message)
	if err != nil {
		return fmt.Errorf("creator signature: %w", err)
	}
	if err := tx.SetSignature(0, creatorSig); err != nil {
		return err
	}
	if err := tx.SetSignature(1, assetKey.Sign(tx.Message)); err != nil {
		return err
	}
	return nil
}
