package ledger

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Wire format: a compact-length count of 64-byte signatures followed by the
// opaque message bytes the signatures cover. Unsigned transactions carry
// all-zero signature slots. Everything crossing a service boundary is the
// base58 encoding of this layout; no other encodings are accepted.

const signatureSize = ed25519.SignatureSize

var (
	ErrMalformedTransaction = errors.New("malformed transaction bytes")
	ErrUnsignedTransaction  = errors.New("transaction has no signature")
)

// Transaction is a decoded wire transaction.
type Transaction struct {
	Signatures [][]byte
	Message    []byte
}

// DecodeTransaction parses base58 wire bytes.
func DecodeTransaction(wire string) (*Transaction, error) {
	raw, err := base58.Decode(wire)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	count, n := readCompactLength(raw)
	if n == 0 || count == 0 {
		return nil, ErrMalformedTransaction
	}
	sigBytes := count * signatureSize
	if len(raw) < n+sigBytes {
		return nil, ErrMalformedTransaction
	}

	tx := &Transaction{
		Signatures: make([][]byte, count),
		Message:    append([]byte(nil), raw[n+sigBytes:]...),
	}
	for i := 0; i < count; i++ {
		offset := n + i*signatureSize
		tx.Signatures[i] = append([]byte(nil), raw[offset:offset+signatureSize]...)
	}
	if len(tx.Message) == 0 {
		return nil, ErrMalformedTransaction
	}
	return tx, nil
}

// SetSignature fills the signature slot at position i.
func (t *Transaction) SetSignature(i int, sig []byte) error {
	if i < 0 || i >= len(t.Signatures) {
		return fmt.Errorf("signature slot %d out of range (have %d)", i, len(t.Signatures))
	}
	if len(sig) != signatureSize {
		return fmt.Errorf("signature must be %d bytes, got %d", signatureSize, len(sig))
	}
	t.Signatures[i] = append([]byte(nil), sig...)
	return nil
}

// PrimarySignature returns the base58 encoding of the first signature slot.
func (t *Transaction) PrimarySignature() (string, error) {
	if len(t.Signatures) == 0 || isZero(t.Signatures[0]) {
		return "", ErrUnsignedTransaction
	}
	return base58.Encode(t.Signatures[0]), nil
}

// Encode serializes the transaction back to base58 wire form.
func (t *Transaction) Encode() string {
	var buf bytes.Buffer
	buf.Write(writeCompactLength(len(t.Signatures)))
	for _, sig := range t.Signatures {
		if len(sig) != signatureSize {
			sig = make([]byte, signatureSize)
		}
		buf.Write(sig)
	}
	buf.Write(t.Message)
	return base58.Encode(buf.Bytes())
}

// NewTransferTransaction builds a native transfer with a single required
// signature from the sending account.
func NewTransferTransaction(blockhash, from, to string, lamports int64) (*Transaction, error) {
	message, err := encodeTransferMessage(blockhash, from, to, lamports)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Signatures: [][]byte{make([]byte, signatureSize)},
		Message:    message,
	}, nil
}

// encodeTransferMessage lays out blockhash, sender, recipient, and amount as
// fixed-width fields: 32+32+32 bytes of base58-decoded keys plus a little
// endian u64.
func encodeTransferMessage(blockhash, from, to string, lamports int64) ([]byte, error) {
	if lamports <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive: %d", lamports)
	}
	var buf bytes.Buffer
	for _, field := range []struct {
		name  string
		value string
	}{
		{"blockhash", blockhash},
		{"from", from},
		{"to", to},
	} {
		raw, err := base58.Decode(field.value)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("invalid %s: %q", field.name, field.value)
		}
		buf.Write(raw)
	}
	var amount [8]byte
	binary.LittleEndian.PutUint64(amount[:], uint64(lamports))
	buf.Write(amount[:])
	return buf.Bytes(), nil
}

// Compact length prefix: 7 bits per byte, little endian, high bit marks a
// continuation byte.
func readCompactLength(raw []byte) (value, bytesRead int) {
	shift := 0
	for i, b := range raw {
		value |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1
		}
		shift += 7
		if shift > 14 {
			return 0, 0
		}
	}
	return 0, 0
}

func writeCompactLength(value int) []byte {
	var out []byte
	for {
		b := byte(value & 0x7f)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if value == 0 {
			return out
		}
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
