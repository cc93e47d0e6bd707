package custody

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/models"
)

const testPassphrase = "0123456789abcdef0123456789abcdef"

type memWalletStore struct {
	wallets map[uuid.UUID]*models.Wallet
	secrets map[uuid.UUID]string
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{
		wallets: map[uuid.UUID]*models.Wallet{},
		secrets: map[uuid.UUID]string{},
	}
}

func (s *memWalletStore) CreateWallet(ctx context.Context, w *models.Wallet, encryptedKey string) error {
	s.wallets[w.ID] = w
	s.secrets[w.ID] = encryptedKey
	return nil
}

func (s *memWalletStore) GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, models.ErrWalletNotFound
	}
	return w, nil
}

func (s *memWalletStore) GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	for _, w := range s.wallets {
		if w.Address == address {
			return w, nil
		}
	}
	return nil, models.ErrWalletNotFound
}

func (s *memWalletStore) WalletSecret(ctx context.Context, id uuid.UUID) (string, error) {
	secret, ok := s.secrets[id]
	if !ok {
		return "", models.ErrWalletNotFound
	}
	return secret, nil
}

func TestKeyCipherRoundTrip(t *testing.T) {
	c, err := newKeyCipher(testPassphrase)
	require.NoError(t, err)

	encrypted, err := c.encrypt("the quick brown fox")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "quick")

	decrypted, err := c.decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox", decrypted)
}

func TestKeyCipherRejectsMalformed(t *testing.T) {
	c, err := newKeyCipher(testPassphrase)
	require.NoError(t, err)

	for _, in := range []string{"", "nocolon", "zz:zz", "00:00"} {
		_, err := c.decrypt(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCreateWalletAndSign(t *testing.T) {
	store := newMemWalletStore()
	custodian, err := NewCustodian(store, testPassphrase)
	require.NoError(t, err)

	ctx := context.Background()
	wallet, err := custodian.CreateWallet(ctx, uuid.New(), "launch wallet")
	require.NoError(t, err)
	require.NotEmpty(t, wallet.Address)

	message := []byte("transaction message bytes")
	sig, err := custodian.SignMessage(ctx, wallet.ID, message)
	require.NoError(t, err)
	require.Len(t, sig, ed25519.SignatureSize)

	pub, err := base58.Decode(wallet.Address)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), message, sig))
}

func TestImportWalletRoundTrip(t *testing.T) {
	store := newMemWalletStore()
	custodian, err := NewCustodian(store, testPassphrase)
	require.NoError(t, err)

	ctx := context.Background()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	wallet, err := custodian.ImportWallet(ctx, uuid.New(), base58.Encode(priv), "")
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(pub), wallet.Address)

	// Importing the same key twice is rejected.
	_, err = custodian.ImportWallet(ctx, uuid.New(), base58.Encode(priv), "")
	assert.ErrorIs(t, err, ErrWalletExists)
}

func TestImportWalletRejectsGarbage(t *testing.T) {
	store := newMemWalletStore()
	custodian, err := NewCustodian(store, testPassphrase)
	require.NoError(t, err)

	_, err = custodian.ImportWallet(context.Background(), uuid.New(), "not-a-key", "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestImportMnemonicDeterministic(t *testing.T) {
	ctx := context.Background()
	mnemonic := "legal winner thank year wave sausage worth useful legal winner thank yellow"

	storeA := newMemWalletStore()
	custodianA, err := NewCustodian(storeA, testPassphrase)
	require.NoError(t, err)
	walletA, err := custodianA.ImportMnemonic(ctx, uuid.New(), mnemonic, "")
	require.NoError(t, err)

	storeB := newMemWalletStore()
	custodianB, err := NewCustodian(storeB, testPassphrase)
	require.NoError(t, err)
	walletB, err := custodianB.ImportMnemonic(ctx, uuid.New(), mnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, walletA.Address, walletB.Address)

	_, err = custodianA.ImportMnemonic(ctx, uuid.New(), "definitely not a mnemonic", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestEphemeralKeySigns(t *testing.T) {
	key, err := NewEphemeralKey()
	require.NoError(t, err)

	message := []byte("create transaction")
	sig := key.Sign(message)

	pub, err := base58.Decode(key.Address())
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), message, sig))
}
