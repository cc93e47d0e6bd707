package custody

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"

	"github.com/tobenna/launchpad/internal/models"
)

var (
	ErrInvalidKey      = errors.New("invalid private key format")
	ErrWalletExists    = errors.New("wallet already imported")
	ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")
)

// WalletStore is the persistence contract the custodian needs. Only the
// custodian ever touches the encrypted key column.
type WalletStore interface {
	CreateWallet(ctx context.Context, w *models.Wallet, encryptedKey string) error
	GetWallet(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	GetWalletByAddress(ctx context.Context, address string) (*models.Wallet, error)
	WalletSecret(ctx context.Context, id uuid.UUID) (string, error)
}

// Custodian owns wallet key material. Keys are encrypted at rest and only
// ever leave this package as signatures.
type Custodian struct {
	store  WalletStore
	cipher *keyCipher
}

func NewCustodian(store WalletStore, encryptionKey string) (*Custodian, error) {
	cipher, err := newKeyCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init key cipher: %w", err)
	}
	return &Custodian{store: store, cipher: cipher}, nil
}

// CreateWallet generates a fresh keypair and stores it encrypted.
func (c *Custodian) CreateWallet(ctx context.Context, userID uuid.UUID, label string) (*models.Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	if label == "" {
		label = fmt.Sprintf("Wallet %d", time.Now().Unix())
	}
	return c.saveWallet(ctx, userID, label, pub, priv)
}

// ImportWallet stores an existing base58-encoded secret key.
func (c *Custodian) ImportWallet(ctx context.Context, userID uuid.UUID, privateKeyBase58, label string) (*models.Wallet, error) {
	secret, err := base58.Decode(privateKeyBase58)
	if err != nil || len(secret) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}
	priv := ed25519.PrivateKey(secret)
	pub := priv.Public().(ed25519.PublicKey)

	if _, err := c.store.GetWalletByAddress(ctx, base58.Encode(pub)); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, models.ErrWalletNotFound) {
		return nil, err
	}

	if label == "" {
		label = fmt.Sprintf("Imported %d", time.Now().Unix())
	}
	return c.saveWallet(ctx, userID, label, pub, priv)
}

// GenerateMnemonic produces a fresh 12-word recovery phrase.
func (c *Custodian) GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ImportMnemonic derives a wallet key from a BIP-39 phrase. The derivation
// is deterministic: the same phrase always yields the same address.
func (c *Custodian) ImportMnemonic(ctx context.Context, userID uuid.UUID, mnemonic, label string) (*models.Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	pub := priv.Public().(ed25519.PublicKey)

	if _, err := c.store.GetWalletByAddress(ctx, base58.Encode(pub)); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, models.ErrWalletNotFound) {
		return nil, err
	}

	if label == "" {
		label = fmt.Sprintf("Recovered %d", time.Now().Unix())
	}
	return c.saveWallet(ctx, userID, label, pub, priv)
}

func (c *Custodian) saveWallet(ctx context.Context, userID uuid.UUID, label string, pub ed25519.PublicKey, priv ed25519.PrivateKey) (*models.Wallet, error) {
	encrypted, err := c.cipher.encrypt(base58.Encode(priv))
	if err != nil {
		return nil, fmt.Errorf("encrypt wallet key: %w", err)
	}

	wallet := &models.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Address: base58.Encode(pub),
		Label:   label,
	}
	if err := c.store.CreateWallet(ctx, wallet, encrypted); err != nil {
		return nil, err
	}
	return wallet, nil
}

// SignMessage signs arbitrary bytes on behalf of the wallet. This is the
// only way key material is exercised outside of custody.
func (c *Custodian) SignMessage(ctx context.Context, walletID uuid.UUID, message []byte) ([]byte, error) {
	priv, err := c.loadKey(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, message), nil
}

// Address returns the wallet's public address.
func (c *Custodian) Address(ctx context.Context, walletID uuid.UUID) (string, error) {
	wallet, err := c.store.GetWallet(ctx, walletID)
	if err != nil {
		return "", err
	}
	return wallet.Address, nil
}

func (c *Custodian) loadKey(ctx context.Context, walletID uuid.UUID) (ed25519.PrivateKey, error) {
	encrypted, err := c.store.WalletSecret(ctx, walletID)
	if err != nil {
		return nil, err
	}
	decoded, err := c.cipher.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet key: %w", err)
	}
	secret, err := base58.Decode(decoded)
	if err != nil || len(secret) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}
	return ed25519.PrivateKey(secret), nil
}

// EphemeralKey is an in-memory keypair that is never persisted. Used for the
// asset identity of a launch: generated, used to co-sign the creation
// transaction, then discarded.
type EphemeralKey struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func NewEphemeralKey() (*EphemeralKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	return &EphemeralKey{priv: priv, pub: pub}, nil
}

func (k *EphemeralKey) Address() string {
	return base58.Encode(k.pub)
}

func (k *EphemeralKey) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}
