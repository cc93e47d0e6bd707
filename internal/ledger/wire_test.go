package ledger

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub), priv
}

func testBlockhash() string {
	return base58.Encode(make([]byte, 32))
}

func TestTransferTransactionRoundTrip(t *testing.T) {
	from, fromKey := testKeys(t)
	to, _ := testKeys(t)

	tx, err := NewTransferTransaction(testBlockhash(), from, to, 50_000_000)
	require.NoError(t, err)
	require.Len(t, tx.Signatures, 1)

	_, err = tx.PrimarySignature()
	assert.ErrorIs(t, err, ErrUnsignedTransaction)

	sig := ed25519.Sign(fromKey, tx.Message)
	require.NoError(t, tx.SetSignature(0, sig))

	primary, err := tx.PrimarySignature()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(sig), primary)

	decoded, err := DecodeTransaction(tx.Encode())
	require.NoError(t, err)
	assert.Equal(t, tx.Message, decoded.Message)
	assert.Equal(t, tx.Signatures, decoded.Signatures)
}

func TestTransferTransactionValidation(t *testing.T) {
	from, _ := testKeys(t)
	to, _ := testKeys(t)

	_, err := NewTransferTransaction(testBlockhash(), from, to, 0)
	assert.Error(t, err)

	_, err = NewTransferTransaction("bad#hash", from, to, 1)
	assert.Error(t, err)

	_, err = NewTransferTransaction(testBlockhash(), "short", to, 1)
	assert.Error(t, err)
}

func TestDecodeTransactionMultipleSigners(t *testing.T) {
	// Simulate what the generation service returns for a creation
	// transaction: two empty signature slots plus a message.
	tx := &Transaction{
		Signatures: [][]byte{make([]byte, 64), make([]byte, 64)},
		Message:    []byte("creation message"),
	}

	decoded, err := DecodeTransaction(tx.Encode())
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 2)
	assert.Equal(t, []byte("creation message"), decoded.Message)

	_, key := testKeys(t)
	sig := ed25519.Sign(key, decoded.Message)
	require.NoError(t, decoded.SetSignature(1, sig))
	assert.Equal(t, sig, decoded.Signatures[1])

	err = decoded.SetSignature(5, sig)
	assert.Error(t, err)
}

func TestDecodeTransactionMalformed(t *testing.T) {
	for _, in := range []string{"", "not/base58", base58.Encode([]byte{1}), base58.Encode([]byte{0})} {
		_, err := DecodeTransaction(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCompactLength(t *testing.T) {
	for _, n := range []int{1, 5, 127, 128, 300} {
		value, read := readCompactLength(writeCompactLength(n))
		assert.Equal(t, n, value)
		assert.Equal(t, len(writeCompactLength(n)), read)
	}
}
