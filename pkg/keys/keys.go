// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package keys derives secp256k1 public keys and pay-to-pubkey-hash
// addresses from raw WIF private key bytes.
//
// Raw key bytes are laid out as
//
//	version (1) || secret scalar (32, big-endian) || [compression flag (1)]
//
// The address version is the WIF version minus 0x80, so a mainnet key
// (0x80) yields a mainnet address (0x00) and a testnet key (0xEF) a testnet
// address (0x6F).
package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/jeremyhahn/go-keyrecover/pkg/base58check"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // Hash160 is defined with RIPEMD-160
)

const (
	// ScalarSize is the size of a secp256k1 private scalar.
	ScalarSize = 32

	// UncompressedSize is the size of raw key bytes without a flag.
	UncompressedSize = 1 + ScalarSize

	// CompressedSize is the size of raw key bytes with a compression flag.
	CompressedSize = UncompressedSize + 1

	// AddressVersionOffset maps a WIF version byte to its address version.
	AddressVersionOffset = 0x80
)

var (
	// ErrInvalidLength is returned for raw key bytes that are neither 33
	// nor 34 bytes long.
	ErrInvalidLength = errors.New("keys: invalid private key length")

	// ErrInvalidVersion is returned when the version byte is zero or below
	// the 0x80 address offset.
	ErrInvalidVersion = errors.New("keys: invalid private key version byte")

	// ErrInvalidScalar is returned for k == 0 or k >= the curve order.
	ErrInvalidScalar = errors.New("keys: private key scalar out of range")

	// ErrZeroed is returned by Err once Zero has wiped the key.
	ErrZeroed = errors.New("keys: private key has been zeroed")
)

// PrivateKey is a validated raw WIF private key. A key is owned by one
// goroutine; Zero must not race with the other methods.
//
// After Zero every accessor returns an empty value (nil bytes, "" strings)
// rather than rendering the wiped bytes, and Err reports ErrZeroed.
type PrivateKey struct {
	raw []byte
}

// ParsePrivateKey validates raw key bytes. The input is copied.
func ParsePrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != UncompressedSize && len(b) != CompressedSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d or %d",
			ErrInvalidLength, len(b), UncompressedSize, CompressedSize)
	}
	// A zero leading byte would also have been lost by any polynomial
	// representation that trims leading zeros.
	if b[0] < AddressVersionOffset {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidVersion, b[0])
	}
	if err := validateScalar(b[1:UncompressedSize]); err != nil {
		return nil, err
	}

	raw := make([]byte, len(b))
	copy(raw, b)
	return &PrivateKey{raw: raw}, nil
}

// ParseWIF decodes and validates a Base58Check WIF string.
func ParseWIF(text string) (*PrivateKey, error) {
	raw, err := base58check.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("keys: failed to decode WIF: %w", err)
	}
	return ParsePrivateKey(raw)
}

// NewPrivateKey assembles raw key bytes from a version, scalar and
// compression choice.
func NewPrivateKey(version byte, scalar []byte, compressed bool) (*PrivateKey, error) {
	if len(scalar) != ScalarSize {
		return nil, fmt.Errorf("%w: scalar is %d bytes", ErrInvalidLength, len(scalar))
	}
	raw := make([]byte, 0, CompressedSize)
	raw = append(raw, version)
	raw = append(raw, scalar...)
	if compressed {
		raw = append(raw, 0x01)
	}
	return ParsePrivateKey(raw)
}

func validateScalar(b []byte) error {
	var k secp256k1.ModNScalar
	overflow := k.SetByteSlice(b)
	defer k.Zero()
	if overflow || k.IsZero() {
		return ErrInvalidScalar
	}
	return nil
}

// Err returns ErrZeroed once the key has been wiped, nil before.
func (k *PrivateKey) Err() error {
	if k.raw == nil {
		return ErrZeroed
	}
	return nil
}

// Version returns the WIF version byte, or 0 once zeroed.
func (k *PrivateKey) Version() byte {
	if k.raw == nil {
		return 0
	}
	return k.raw[0]
}

// AddressVersion returns the version byte of the matching address.
func (k *PrivateKey) AddressVersion() byte {
	if k.raw == nil {
		return 0
	}
	return k.raw[0] - AddressVersionOffset
}

// Compressed reports whether a nonzero compression flag is present.
func (k *PrivateKey) Compressed() bool {
	return len(k.raw) == CompressedSize && k.raw[UncompressedSize] != 0
}

// Bytes returns a copy of the raw key bytes, or nil once zeroed.
func (k *PrivateKey) Bytes() []byte {
	if k.raw == nil {
		return nil
	}
	b := make([]byte, len(k.raw))
	copy(b, k.raw)
	return b
}

// WIF returns the Base58Check encoding of the raw key bytes.
func (k *PrivateKey) WIF() string {
	if k.raw == nil {
		return ""
	}
	return base58check.Encode(k.raw)
}

// Network returns the network whose private key version matches, if any.
func (k *PrivateKey) Network() (*Network, bool) {
	if k.raw == nil {
		return nil, false
	}
	return NetworkForVersion(k.raw[0])
}

// PublicKey computes P = k*G and serializes it as 0x02/0x03 || x when
// compressed, else 0x04 || x || y.
func (k *PrivateKey) PublicKey() []byte {
	if k.raw == nil {
		return nil
	}
	priv, pub := btcec.PrivKeyFromBytes(k.raw[1:UncompressedSize])
	defer priv.Zero()

	if k.Compressed() {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}

// PubKeyHash returns RIPEMD160(SHA-256(public key)).
func (k *PrivateKey) PubKeyHash() []byte {
	if k.raw == nil {
		return nil
	}
	return Hash160(k.PublicKey())
}

// Address returns the Base58Check pay-to-pubkey-hash address.
func (k *PrivateKey) Address() string {
	if k.raw == nil {
		return ""
	}
	payload := make([]byte, 0, 1+ripemd160.Size)
	payload = append(payload, k.AddressVersion())
	payload = append(payload, k.PubKeyHash()...)
	return base58check.Encode(payload)
}

// Zero overwrites the key material and retires the key.
func (k *PrivateKey) Zero() {
	for i := range k.raw {
		k.raw[i] = 0
	}
	k.raw = nil
}

// Hash160 returns RIPEMD160(SHA-256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// DeriveAddress validates raw key bytes and returns their address.
func DeriveAddress(privateKeyBytes []byte) (string, error) {
	k, err := ParsePrivateKey(privateKeyBytes)
	if err != nil {
		return "", err
	}
	return k.Address(), nil
}
