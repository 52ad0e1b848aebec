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

package gf256

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when combining polynomials of different
// lengths.
var ErrLengthMismatch = errors.New("gf256: polynomial length mismatch")

// Poly is a polynomial over the QR-code field. Coefficients are stored
// highest degree first, which is also the byte order of a share payload.
//
// Leading zero coefficients are kept: a share payload is a fixed-width
// vector and its length must survive arithmetic unchanged.
type Poly struct {
	coefficients []byte
}

// NewPoly returns a polynomial with a copy of the given coefficients.
func NewPoly(coefficients []byte) Poly {
	c := make([]byte, len(coefficients))
	copy(c, coefficients)
	return Poly{coefficients: c}
}

// Zero returns the zero polynomial of the given width.
func Zero(length int) Poly {
	return Poly{coefficients: make([]byte, length)}
}

// Len returns the number of stored coefficients.
func (p Poly) Len() int {
	return len(p.coefficients)
}

// Coefficients returns a copy of the coefficients, highest degree first.
func (p Poly) Coefficients() []byte {
	c := make([]byte, len(p.coefficients))
	copy(c, p.coefficients)
	return c
}

// Degree returns the degree ignoring leading zeros, or -1 for the zero
// polynomial.
func (p Poly) Degree() int {
	for i, c := range p.coefficients {
		if c != 0 {
			return len(p.coefficients) - 1 - i
		}
	}
	return -1
}

// IsZero reports whether every coefficient is zero.
func (p Poly) IsZero() bool {
	return p.Degree() < 0
}

// MultiplyScalar multiplies every coefficient by c.
func (p Poly) MultiplyScalar(c byte) Poly {
	out := make([]byte, len(p.coefficients))
	if c == 0 {
		return Poly{coefficients: out}
	}
	for i, v := range p.coefficients {
		out[i] = QRCodeField.Multiply(v, c)
	}
	return Poly{coefficients: out}
}

// AddOrSubtract returns p + other (equivalently p - other).
func (p Poly) AddOrSubtract(other Poly) (Poly, error) {
	if len(p.coefficients) != len(other.coefficients) {
		return Poly{}, fmt.Errorf("%w: %d != %d",
			ErrLengthMismatch, len(p.coefficients), len(other.coefficients))
	}
	out := make([]byte, len(p.coefficients))
	for i := range out {
		out[i] = p.coefficients[i] ^ other.coefficients[i]
	}
	return Poly{coefficients: out}, nil
}

// Evaluate returns p(x) using Horner's method.
func (p Poly) Evaluate(x byte) byte {
	var result byte
	for _, c := range p.coefficients {
		result = QRCodeField.Multiply(result, x) ^ c
	}
	return result
}

// String implements fmt.Stringer.
func (p Poly) String() string {
	return fmt.Sprintf("Poly{degree: %d, len: %d}", p.Degree(), len(p.coefficients))
}
