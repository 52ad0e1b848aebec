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

// Package gf256 implements arithmetic in the finite field GF(2^8) used by
// QR-code Reed-Solomon coding, together with a polynomial type over it.
//
// The field is defined by the primitive polynomial
//
//	x^8 + x^4 + x^3 + x^2 + 1 (0x11D)
//
// with generator 2. This is NOT the AES field (0x11B). Shares produced by
// QR-based key generators are computed in this field, and interpolating them
// in any other GF(256) silently yields a different secret.
package gf256

import (
	"errors"
	"fmt"
)

const (
	// QRCodePolynomial is the reduction polynomial of the QR-code field.
	QRCodePolynomial = 0x11D

	// QRCodeGenerator is the generator used to build the log tables.
	QRCodeGenerator = 0x02

	// Order is the number of elements in the multiplicative group.
	Order = 255
)

var (
	// ErrDivisionByZero is returned when inverting or dividing by zero.
	ErrDivisionByZero = errors.New("gf256: division by zero")

	// ErrNotPrimitive is returned by NewField when the polynomial and
	// generator do not produce all 255 nonzero elements.
	ErrNotPrimitive = errors.New("gf256: generator is not primitive for polynomial")
)

// Field is GF(256) under a specific reduction polynomial. Multiplication
// and inversion use precomputed exponent/logarithm tables.
type Field struct {
	polynomial int
	generator  byte
	exp        [2 * Order]byte
	log        [256]int
}

// QRCodeField is the field used by QR-code Reed-Solomon coding.
var QRCodeField = mustField(QRCodePolynomial, QRCodeGenerator)

// NewField builds the log/antilog tables for the given reduction polynomial
// (including the x^8 term) and generator.
func NewField(polynomial int, generator byte) (*Field, error) {
	if polynomial < 0x100 || polynomial > 0x1FF {
		return nil, fmt.Errorf("gf256: polynomial 0x%X is not of degree 8", polynomial)
	}

	f := &Field{
		polynomial: polynomial,
		generator:  generator,
	}
	for i := range f.log {
		f.log[i] = -1
	}

	x := 1
	for i := 0; i < Order; i++ {
		if f.log[x] != -1 {
			return nil, ErrNotPrimitive
		}
		f.exp[i] = byte(x)
		f.log[x] = i
		x = carrylessMultiply(x, int(generator), polynomial)
	}
	if x != 1 {
		return nil, ErrNotPrimitive
	}

	// Doubled table so Multiply can skip the modulo.
	for i := Order; i < len(f.exp); i++ {
		f.exp[i] = f.exp[i-Order]
	}

	return f, nil
}

func mustField(polynomial int, generator byte) *Field {
	f, err := NewField(polynomial, generator)
	if err != nil {
		panic(err)
	}
	return f
}

// carrylessMultiply multiplies two field elements bit by bit. Only used
// while building tables.
func carrylessMultiply(a, b, polynomial int) int {
	p := 0
	for b > 0 {
		if b&1 != 0 {
			p ^= a
		}
		a <<= 1
		if a&0x100 != 0 {
			a ^= polynomial
		}
		b >>= 1
	}
	return p
}

// Polynomial returns the reduction polynomial of the field.
func (f *Field) Polynomial() int {
	return f.polynomial
}

// AddOrSubtract adds or subtracts two elements. Both are XOR in GF(2^n).
func (f *Field) AddOrSubtract(a, b byte) byte {
	return a ^ b
}

// Multiply returns a*b.
func (f *Field) Multiply(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return f.exp[f.log[a]+f.log[b]]
}

// Inverse returns the multiplicative inverse of a.
func (f *Field) Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return f.exp[Order-f.log[a]], nil
}

// Divide returns a/b.
func (f *Field) Divide(a, b byte) (byte, error) {
	inv, err := f.Inverse(b)
	if err != nil {
		return 0, err
	}
	return f.Multiply(a, inv), nil
}

// Exp returns generator^i. Negative exponents are reduced modulo 255.
func (f *Field) Exp(i int) byte {
	i %= Order
	if i < 0 {
		i += Order
	}
	return f.exp[i]
}

// Log returns the discrete logarithm of a to the field generator.
func (f *Field) Log(a byte) (int, error) {
	if a == 0 {
		return 0, fmt.Errorf("gf256: log of zero: %w", ErrDivisionByZero)
	}
	return f.log[a], nil
}

// Multiply returns a*b in the QR-code field.
func Multiply(a, b byte) byte {
	return QRCodeField.Multiply(a, b)
}

// Inverse returns the inverse of a in the QR-code field.
func Inverse(a byte) (byte, error) {
	return QRCodeField.Inverse(a)
}

// Divide returns a/b in the QR-code field.
func Divide(a, b byte) (byte, error) {
	return QRCodeField.Divide(a, b)
}

// AddOrSubtract returns a XOR b.
func AddOrSubtract(a, b byte) byte {
	return a ^ b
}
