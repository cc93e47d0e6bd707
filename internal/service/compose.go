package service

import (
	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
)

// BundleComposer assembles the ordered intent list for a launch: the
// creation intent first, then purchase intents for funded wallets.
type BundleComposer struct {
	pool string
}

func NewBundleComposer() *BundleComposer {
	return &BundleComposer{pool: "pump"}
}

// Compose validates the launch preconditions and builds the bundle intents.
// Position 0 is always the creation intent, which carries the creator's dev
// buy. Funded wallets fill the remaining slots in assignment order; the
// creator wallet never appears as a buyer. Wallets beyond the bundle cap
// are reported in Excluded, never silently dropped.
func (c *BundleComposer) Compose(project *models.Project, funded []models.FundingAssignment, creator *models.Wallet, mintAddress, metadataURI string) (*models.Composition, error) {
	switch {
	case project.Name == "":
		return nil, &models.PreconditionError{Reason: "project name is required"}
	case project.Symbol == "":
		return nil, &models.PreconditionError{Reason: "project symbol is required"}
	case metadataURI == "":
		return nil, &models.PreconditionError{Reason: "metadata URI is required"}
	case mintAddress == "":
		return nil, &models.PreconditionError{Reason: "mint address is required"}
	}

	buyAmount := domain.NewAmount(project.BuyAmountLamports)
	intents := []models.TransactionIntent{{
		PublicKey: creator.Address,
		Action:    models.IntentCreate,
		Mint:      mintAddress,
		TokenMetadata: &models.TokenMetadata{
			Name:   project.Name,
			Symbol: project.Symbol,
			URI:    metadataURI,
		},
		AmountSOL:        buyAmount.ToSOL().String(),
		DenominatedInSol: "true",
		SlippagePct:      domain.DefaultSlippagePct,
		PriorityFeeSOL:   domain.CreatePriorityFeeSOL,
		Pool:             c.pool,
	}}

	comp := &models.Composition{}
	maxBuyers := domain.MaxBundleTransactions - 1
	for _, assignment := range funded {
		if assignment.WalletAddress == creator.Address {
			continue
		}
		if len(comp.Buyers) >= maxBuyers {
			comp.Excluded = append(comp.Excluded, assignment)
			continue
		}
		walletID := assignment.WalletID
		intents = append(intents, models.TransactionIntent{
			PublicKey:        assignment.WalletAddress,
			Action:           models.IntentBuy,
			Mint:             mintAddress,
			AmountSOL:        buyAmount.ToSOL().String(),
			DenominatedInSol: "true",
			SlippagePct:      domain.DefaultSlippagePct,
			PriorityFeeSOL:   domain.BuyPriorityFeeSOL,
			Pool:             c.pool,
			WalletID:         &walletID,
		})
		comp.Buyers = append(comp.Buyers, assignment)
	}
	comp.Intents = intents
	return comp, nil
}
