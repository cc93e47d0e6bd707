package service

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/custody"
	"github.com/tobenna/launchpad/internal/ledger"
	"github.com/tobenna/launchpad/internal/models"
)

func unsignedWire(t *testing.T, slots int, message string) string {
	t.Helper()
	tx := &ledger.Transaction{Message: []byte(message)}
	for i := 0; i < slots; i++ {
		tx.Signatures = append(tx.Signatures, make([]byte, 64))
	}
	return tx.Encode()
}

func signComposition(buyers ...uuid.UUID) *models.Composition {
	comp := &models.Composition{
		Intents: []models.TransactionIntent{{Action: models.IntentCreate}},
	}
	for i := range buyers {
		buyerID := buyers[i]
		comp.Intents = append(comp.Intents, models.TransactionIntent{
			Action:   models.IntentBuy,
			WalletID: &buyerID,
		})
		comp.Buyers = append(comp.Buyers, models.FundingAssignment{WalletID: buyerID})
	}
	return comp
}

func TestSignBundle(t *testing.T) {
	keys := newStubSigner()
	creator := keys.addWallet(t)
	buyer1 := keys.addWallet(t)
	buyer2 := keys.addWallet(t)
	assetKey, err := custody.NewEphemeralKey()
	require.NoError(t, err)

	unsigned := []string{
		unsignedWire(t, 2, "create-message"),
		unsignedWire(t, 1, "buy-message-1"),
		unsignedWire(t, 1, "buy-message-2"),
	}

	signer := NewTransactionSigner(keys)
	signed, err := signer.Sign(context.Background(), signComposition(buyer1, buyer2), unsigned, assetKey, creator)
	require.NoError(t, err)
	require.Len(t, signed, 3)

	// Creation carries the creator's primary signature plus the asset key's.
	create, err := ledger.DecodeTransaction(signed[0].Wire)
	require.NoError(t, err)
	require.Len(t, create.Signatures, 2)
	creatorAddr, err := keys.Address(context.Background(), creator)
	require.NoError(t, err)
	creatorPub, err := base58.Decode(creatorAddr)
	require.NoError(t, err)
	require.True(t, ed25519.Verify(creatorPub, create.Message, create.Signatures[0]))
	assetPub, err := base58.Decode(assetKey.Address())
	require.NoError(t, err)
	require.True(t, ed25519.Verify(assetPub, create.Message, create.Signatures[1]))

	for i, buyer := range []uuid.UUID{buyer1, buyer2} {
		tx, err := ledger.DecodeTransaction(signed[i+1].Wire)
		require.NoError(t, err)
		addr, err := keys.Address(context.Background(), buyer)
		require.NoError(t, err)
		pub, err := base58.Decode(addr)
		require.NoError(t, err)
		require.True(t, ed25519.Verify(pub, tx.Message, tx.Signatures[0]))
		require.NotEmpty(t, signed[i+1].Signature)
	}
}

func TestSignCountMismatch(t *testing.T) {
	keys := newStubSigner()
	creator := keys.addWallet(t)
	assetKey, err := custody.NewEphemeralKey()
	require.NoError(t, err)

	signer := NewTransactionSigner(keys)
	_, err = signer.Sign(context.Background(), signComposition(), []string{}, assetKey, creator)
	require.Error(t, err)
}

func TestSignFailureNamesPosition(t *testing.T) {
	keys := newStubSigner()
	creator := keys.addWallet(t)
	buyer := keys.addWallet(t)
	assetKey, err := custody.NewEphemeralKey()
	require.NoError(t, err)

	unsigned := []string{
		unsignedWire(t, 2, "create-message"),
		"!!not-base58!!",
	}

	signer := NewTransactionSigner(keys)
	_, err = signer.Sign(context.Background(), signComposition(buyer), unsigned, assetKey, creator)
	var signingErr *models.SigningError
	require.ErrorAs(t, err, &signingErr)
	require.Equal(t, 1, signingErr.Position)
}

func TestSignCreationNeedsTwoSlots(t *testing.T) {
	keys := newStubSigner()
	creator := keys.addWallet(t)
	assetKey, err := custody.NewEphemeralKey()
	require.NoError(t, err)

	signer := NewTransactionSigner(keys)
	_, err = signer.Sign(context.Background(), signComposition(), []string{unsignedWire(t, 1, "create-message")}, assetKey, creator)
	var signingErr *models.SigningError
	require.ErrorAs(t, err, &signingErr)
	require.Equal(t, 0, signingErr.Position)
}
