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

// Package base58check implements Bitcoin's Base58Check text encoding.
//
// Encode appends the first four bytes of SHA-256(SHA-256(payload)) to the
// payload and renders the result in base-58, one leading '1' per leading zero
// byte. Unlike btcutil's CheckEncode, the version byte is not split out: it
// is simply the first byte of the payload.
package base58check

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// Alphabet is the Bitcoin base-58 alphabet (no 0, O, I or l).
	Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	// ChecksumSize is the number of checksum bytes appended to the payload.
	ChecksumSize = 4
)

var (
	// ErrInvalidCharacter is returned when the text contains a character
	// outside the base-58 alphabet.
	ErrInvalidCharacter = errors.New("base58check: invalid character")

	// ErrInvalidChecksum is returned when the trailing checksum does not
	// match the payload.
	ErrInvalidChecksum = errors.New("base58check: invalid checksum")
)

// Checksum returns the first four bytes of SHA-256(SHA-256(payload)).
func Checksum(payload []byte) [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	copy(sum[:], chainhash.DoubleHashB(payload))
	return sum
}

// Encode returns the Base58Check encoding of payload.
func Encode(payload []byte) string {
	sum := Checksum(payload)
	buf := make([]byte, 0, len(payload)+ChecksumSize)
	buf = append(buf, payload...)
	buf = append(buf, sum[:]...)
	return base58.Encode(buf)
}

// Decode verifies and strips the checksum of a Base58Check string.
//
// Text that decodes to four bytes or fewer carries no payload; Decode
// returns an empty payload and no error, and callers must treat that as
// "nothing valid".
func Decode(text string) ([]byte, error) {
	if i := strings.IndexFunc(text, notInAlphabet); i >= 0 {
		return nil, fmt.Errorf("%w %q at offset %d", ErrInvalidCharacter, text[i], i)
	}

	raw := base58.Decode(text)
	if len(raw) <= ChecksumSize {
		return []byte{}, nil
	}

	payload := raw[:len(raw)-ChecksumSize]
	sum := Checksum(payload)
	if !bytes.Equal(sum[:], raw[len(raw)-ChecksumSize:]) {
		return nil, ErrInvalidChecksum
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func notInAlphabet(r rune) bool {
	return !strings.ContainsRune(Alphabet, r)
}
