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

// Package validation checks untrusted text before it reaches a decoder.
// The REST handlers and the CLI both run share and WIF input through it,
// so oversized or binary input is rejected the same way at every entry
// point.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxShareLength bounds a share string. A 34 byte key encodes to about
	// 60 characters; the limit leaves room for longer payloads.
	MaxShareLength = 512

	// MaxWIFLength bounds a WIF string (51 or 52 characters in practice).
	MaxWIFLength = 64
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ValidateShareText validates a share string before it is parsed.
func ValidateShareText(text string) error {
	return validateText("share", text, MaxShareLength)
}

// ValidateWIF validates a WIF string before it is decoded.
func ValidateWIF(text string) error {
	return validateText("WIF", text, MaxWIFLength)
}

func validateText(kind, text string, max int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, kind)
	}

	// Check length before scanning characters
	if len(text) > max {
		return fmt.Errorf("%w: %s too long (%d bytes, max %d)", ErrInvalidInput, kind, len(text), max)
	}

	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidInput, kind)
	}
	for _, r := range text {
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: %s contains control characters", ErrInvalidInput, kind)
		}
	}
	return nil
}
