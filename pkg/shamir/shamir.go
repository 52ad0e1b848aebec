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

// Package shamir implements Shamir's Secret Sharing over the QR-code
// GF(256) field.
//
// Every byte of the secret is the constant term of its own polynomial of
// degree threshold-1. A share is the vector of those polynomials evaluated at
// the share index x (1..16). Combine recovers the secret by Lagrange
// interpolation at x = 0:
//
//	secret = sum_i y_i * prod_{j!=i} x_j / (x_j - x_i)
//
// Addition and subtraction are both XOR in GF(2^8).
package shamir

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-keyrecover/pkg/gf256"
)

const (
	// MaxShares is the largest share index representable in a share record
	// (a 4-bit nibble holding index-1).
	MaxShares = 16
)

var (
	// ErrNoPoints is returned when Combine is called without points.
	ErrNoPoints = errors.New("shamir: no points to combine")

	// ErrLengthMismatch is returned when point payloads differ in length.
	ErrLengthMismatch = errors.New("shamir: share payload lengths differ")

	// ErrInvalidParameters is returned by Split for an impossible scheme.
	ErrInvalidParameters = errors.New("shamir: invalid threshold or share count")

	// ErrEmptySecret is returned by Split for a zero-length secret.
	ErrEmptySecret = errors.New("shamir: secret cannot be empty")
)

// Point is one share: the evaluation point X and the per-byte evaluations Y.
type Point struct {
	X byte
	Y []byte
}

// Combine reconstructs the secret from exactly the points given. The
// caller is responsible for supplying threshold-many points; extra points
// are not ignored and take part in the interpolation.
//
// Two points with the same X, or a point with X = 0, make a Lagrange
// denominator zero and Combine fails with gf256.ErrDivisionByZero.
func Combine(points []Point) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	length := len(points[0].Y)
	for i, p := range points {
		if len(p.Y) != length {
			return nil, fmt.Errorf("%w: point %d has %d bytes, want %d",
				ErrLengthMismatch, i, len(p.Y), length)
		}
	}

	// Lagrange numerator, shared by every basis polynomial.
	num := byte(1)
	for _, p := range points {
		num = gf256.Multiply(num, p.X)
	}

	secret := gf256.Zero(length)
	for i, p := range points {
		// The denominator starts at x_i to cancel x_i out of the numerator.
		den := p.X
		for j, q := range points {
			if j == i {
				continue
			}
			den = gf256.Multiply(den, gf256.AddOrSubtract(q.X, p.X))
		}

		lc, err := gf256.Divide(num, den)
		if err != nil {
			return nil, fmt.Errorf("shamir: lagrange coefficient for x=%d: %w", p.X, err)
		}

		term := gf256.NewPoly(p.Y).MultiplyScalar(lc)
		secret, err = secret.AddOrSubtract(term)
		if err != nil {
			return nil, err
		}
	}

	return secret.Coefficients(), nil
}

// Split divides secret into total points, any threshold of which recover
// it. Coefficients are read from r; a nil r uses crypto/rand.
func Split(secret []byte, threshold, total int, r io.Reader) ([]Point, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if threshold < 1 || total < threshold || total > MaxShares {
		return nil, fmt.Errorf("%w: threshold=%d total=%d (need 1 <= threshold <= total <= %d)",
			ErrInvalidParameters, threshold, total, MaxShares)
	}
	if r == nil {
		r = rand.Reader
	}

	// coeffs[d] holds the degree-d coefficient of every byte polynomial.
	coeffs := make([][]byte, threshold)
	coeffs[0] = secret
	for d := 1; d < threshold; d++ {
		coeffs[d] = make([]byte, len(secret))
		if _, err := io.ReadFull(r, coeffs[d]); err != nil {
			return nil, fmt.Errorf("shamir: failed to generate coefficients: %w", err)
		}
	}

	points := make([]Point, total)
	for i := range points {
		x := byte(i + 1)
		y := make([]byte, len(secret))
		for b := range y {
			// Horner from the highest degree down.
			var acc byte
			for d := threshold - 1; d >= 0; d-- {
				acc = gf256.Multiply(acc, x) ^ coeffs[d][b]
			}
			y[b] = acc
		}
		points[i] = Point{X: x, Y: y}
	}

	return points, nil
}
