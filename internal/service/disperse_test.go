package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/tobenna/launchpad/internal/models"
)

func testAddress(t *testing.T) string {
	t.Helper()
	signer := newStubSigner()
	id := signer.addWallet(t)
	addr, err := signer.Address(context.Background(), id)
	require.NoError(t, err)
	return addr
}

func TestDisperseInsufficientFunds(t *testing.T) {
	signer := newStubSigner()
	funding := signer.addWallet(t)
	fundingAddr, err := signer.Address(context.Background(), funding)
	require.NoError(t, err)

	ledgerStub := newStubLedger()
	// 0.4 SOL cannot cover ten 0.05 SOL transfers plus fees.
	ledgerStub.balances[fundingAddr] = 400_000_000

	svc := NewDisperseService(ledgerStub, signer, NewAuditService(newMemStore()), time.Second)

	targets := make([]string, 10)
	for i := range targets {
		targets[i] = testAddress(t)
	}

	results, err := svc.Disperse(context.Background(), funding, targets, 50_000_000)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	require.Len(t, results, 10)
	for _, r := range results {
		require.False(t, r.Success)
		require.Contains(t, r.Error, "insufficient funds")
	}
	require.Zero(t, ledgerStub.sends, "no transfer may be attempted")
}

func TestDisperseSequentialConfirmedTransfers(t *testing.T) {
	signer := newStubSigner()
	funding := signer.addWallet(t)
	fundingAddr, err := signer.Address(context.Background(), funding)
	require.NoError(t, err)

	ledgerStub := newStubLedger()
	ledgerStub.balances[fundingAddr] = 1_000_000_000

	store := newMemStore()
	svc := NewDisperseService(ledgerStub, signer, NewAuditService(store), time.Second)

	targets := []string{testAddress(t), testAddress(t), testAddress(t)}
	results, err := svc.Disperse(context.Background(), funding, targets, 100_000_000)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		require.True(t, r.Success)
		require.NotEmpty(t, r.Signature)
		require.Equal(t, targets[i], r.Address)
	}
	// Each transfer is confirmed before the next is sent.
	require.Equal(t, ledgerStub.confirmed, []string{"sig-0", "sig-1", "sig-2"})
	require.Len(t, store.events, 3)
}

func TestDisperseFailedTransferDoesNotAbortRun(t *testing.T) {
	signer := newStubSigner()
	funding := signer.addWallet(t)
	fundingAddr, err := signer.Address(context.Background(), funding)
	require.NoError(t, err)

	ledgerStub := newStubLedger()
	ledgerStub.balances[fundingAddr] = 1_000_000_000
	ledgerStub.sendErrAt[1] = errors.New("blockhash expired")

	svc := NewDisperseService(ledgerStub, signer, NewAuditService(newMemStore()), time.Second)

	targets := []string{testAddress(t), testAddress(t), testAddress(t)}
	results, err := svc.Disperse(context.Background(), funding, targets, 100_000_000)
	require.NoError(t, err)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Contains(t, results[1].Error, "blockhash expired")
	require.True(t, results[2].Success)
}

func TestDisperseRejectsBadInput(t *testing.T) {
	signer := newStubSigner()
	funding := signer.addWallet(t)
	svc := NewDisperseService(newStubLedger(), signer, NewAuditService(newMemStore()), time.Second)

	results, err := svc.Disperse(context.Background(), funding, nil, 100)
	require.NoError(t, err)
	require.Empty(t, results)

	_, err = svc.Disperse(context.Background(), funding, []string{base58.Encode(make([]byte, 32))}, 0)
	require.Error(t, err)

	_, err = svc.Disperse(context.Background(), uuid.New(), []string{base58.Encode(make([]byte, 32))}, 100)
	require.ErrorIs(t, err, models.ErrWalletNotFound)
}
