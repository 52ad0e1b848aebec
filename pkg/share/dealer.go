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

package share

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jeremyhahn/go-keyrecover/pkg/gf256"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
)

// SetIDFor derives the set id of a secret: the first two bytes of its
// double SHA-256. Every share dealt from the same secret carries it.
func SetIDFor(secret []byte) uint16 {
	return binary.BigEndian.Uint16(chainhash.DoubleHashB(secret)[:2])
}

// Deal splits secret into total shares, any threshold of which recover it.
// Coefficients are read from r (crypto/rand when nil).
//
// Example:
//
//	shares, err := share.Deal(wifBytes, 2, 3, nil)
//	for _, s := range shares {
//	    fmt.Println(s) // SSS-...
//	}
func Deal(secret []byte, threshold, total int, r io.Reader) ([]*Share, error) {
	if len(secret) < MinPayloadSize || len(secret) > MaxSecretSize {
		return nil, fmt.Errorf("share: secret is %d bytes, want %d to %d",
			len(secret), MinPayloadSize, MaxSecretSize)
	}

	points, err := shamir.Split(secret, threshold, total, r)
	if err != nil {
		return nil, fmt.Errorf("share: failed to split secret: %w", err)
	}

	setID := SetIDFor(secret)
	shares := make([]*Share, len(points))
	for i, p := range points {
		shares[i], err = New(setID, threshold, int(p.X), p.Y)
		if err != nil {
			return nil, err
		}
	}
	return shares, nil
}

// logInfinity marks a coefficient byte that stands for zero.
const logInfinity = 0xff

// DeterministicReader returns the coefficient stream used by paper
// wallet devices: SHA-256 of the secret followed by one zero byte, then
// SHA-256 of each previous block. Every hash byte is read as a discrete
// logarithm over the share field, with 0xff standing for zero. Dealing
// the same secret with it always yields the same shares.
//
// The shares are only as unpredictable as the secret itself.
func DeterministicReader(secret []byte) io.Reader {
	seed := make([]byte, len(secret)+1)
	copy(seed, secret)
	block := chainhash.HashB(seed)
	for i := range seed {
		seed[i] = 0
	}
	return &hashChainReader{block: block}
}

type hashChainReader struct {
	block []byte
	off   int
}

func (r *hashChainReader) Read(p []byte) (int, error) {
	for i := range p {
		if r.off == len(r.block) {
			next := chainhash.HashB(r.block)
			for j := range r.block {
				r.block[j] = 0
			}
			r.block, r.off = next, 0
		}
		c := r.block[r.off]
		r.off++
		if c == logInfinity {
			p[i] = 0
			continue
		}
		p[i] = gf256.QRCodeField.Exp(int(c))
	}
	return len(p), nil
}

// DealDeterministic is Deal with coefficients from DeterministicReader.
func DealDeterministic(secret []byte, threshold, total int) ([]*Share, error) {
	return Deal(secret, threshold, total, DeterministicReader(secret))
}
