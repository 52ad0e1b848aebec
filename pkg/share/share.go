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

// Package share implements the text wire format of a single Shamir share:
//
//	"SSS-" + Base58Check(version || setID[2] || (threshold-1)<<4 | (index-1) || payload)
//
// The version byte is 19, the set id is big-endian, and the payload is at
// least 33 bytes (a WIF version byte followed by a 32-byte secret, plus an
// optional compression flag).
package share

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyrecover/pkg/base58check"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
)

const (
	// Prefix tags every share string.
	Prefix = "SSS-"

	// Version is the content type byte for base-58 key shares.
	Version byte = 19

	// HeaderSize is version + set id + packed threshold/index.
	HeaderSize = 4

	// MinPayloadSize is the smallest payload accepted (version + 32-byte key).
	MinPayloadSize = 33

	// MaxSecretSize is the largest secret the dealer will split
	// (version + 32-byte key + compression flag).
	MaxSecretSize = 34

	// MaxShares is the largest threshold or index a packed nibble can hold.
	MaxShares = shamir.MaxShares
)

var (
	// ErrBadPrefix is returned when the text does not start with "SSS-".
	ErrBadPrefix = errors.New("share: missing SSS- prefix")

	// ErrBadChecksum is returned when the Base58Check body does not verify
	// or is too short to be a share.
	ErrBadChecksum = errors.New("share: bad checksum or truncated share")

	// ErrIncompatible is returned for a share of a different format version
	// or one that does not belong to the set being collected.
	ErrIncompatible = errors.New("share: incompatible share")
)

// Share is one decoded share record. It is immutable once constructed.
type Share struct {
	version   byte
	setID     uint16
	threshold int
	index     int
	payload   []byte
}

// New builds a share from its fields. threshold and index must be in
// [1, MaxShares] and the payload must be at least MinPayloadSize bytes.
func New(setID uint16, threshold, index int, payload []byte) (*Share, error) {
	if threshold < 1 || threshold > MaxShares {
		return nil, fmt.Errorf("share: threshold %d out of range [1, %d]", threshold, MaxShares)
	}
	if index < 1 || index > MaxShares {
		return nil, fmt.Errorf("share: index %d out of range [1, %d]", index, MaxShares)
	}
	if len(payload) < MinPayloadSize {
		return nil, fmt.Errorf("share: payload is %d bytes, need at least %d", len(payload), MinPayloadSize)
	}

	p := make([]byte, len(payload))
	copy(p, payload)
	return &Share{
		version:   Version,
		setID:     setID,
		threshold: threshold,
		index:     index,
		payload:   p,
	}, nil
}

// Parse decodes a share string. Surrounding whitespace is ignored.
func Parse(text string) (*Share, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return nil, ErrBadPrefix
	}

	raw, err := base58check.Decode(text[len(Prefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadChecksum, err)
	}
	if len(raw) < HeaderSize+MinPayloadSize {
		return nil, fmt.Errorf("%w: decoded %d bytes, need at least %d",
			ErrBadChecksum, len(raw), HeaderSize+MinPayloadSize)
	}

	if raw[0] != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrIncompatible, raw[0], Version)
	}

	payload := make([]byte, len(raw)-HeaderSize)
	copy(payload, raw[HeaderSize:])

	return &Share{
		version:   raw[0],
		setID:     binary.BigEndian.Uint16(raw[1:3]),
		threshold: int(raw[3]>>4) + 1,
		index:     int(raw[3]&0x0F) + 1,
		payload:   payload,
	}, nil
}

// Version returns the content type byte.
func (s *Share) Version() byte { return s.version }

// SetID returns the 16-bit share-set identifier.
func (s *Share) SetID() uint16 { return s.setID }

// SetIDHex returns the set id as four lowercase hex digits.
func (s *Share) SetIDHex() string { return fmt.Sprintf("%04x", s.setID) }

// Threshold returns the number of shares needed to recover the secret.
func (s *Share) Threshold() int { return s.threshold }

// Index returns the evaluation point x of this share (1-based, never 0).
func (s *Share) Index() int { return s.index }

// Payload returns a copy of the share's payload bytes.
func (s *Share) Payload() []byte {
	p := make([]byte, len(s.payload))
	copy(p, s.payload)
	return p
}

// Point returns the share as an interpolation point.
func (s *Share) Point() shamir.Point {
	return shamir.Point{X: byte(s.index), Y: s.Payload()}
}

// Bytes returns the binary record (header followed by payload).
func (s *Share) Bytes() []byte {
	raw := make([]byte, HeaderSize, HeaderSize+len(s.payload))
	raw[0] = s.version
	binary.BigEndian.PutUint16(raw[1:3], s.setID)
	raw[3] = byte(s.threshold-1)<<4 | byte(s.index-1)
	return append(raw, s.payload...)
}

// String returns the "SSS-" share string; Parse(s.String()) reproduces s.
func (s *Share) String() string {
	return Prefix + base58check.Encode(s.Bytes())
}

// CompatibleWith reports whether s may join a set with other.
func (s *Share) CompatibleWith(other *Share) error {
	switch {
	case s.version != other.version:
		return fmt.Errorf("%w: version %d != %d", ErrIncompatible, s.version, other.version)
	case s.setID != other.setID:
		return fmt.Errorf("%w: set id %04x != %04x", ErrIncompatible, s.setID, other.setID)
	case s.threshold != other.threshold:
		return fmt.Errorf("%w: threshold %d != %d", ErrIncompatible, s.threshold, other.threshold)
	case len(s.payload) != len(other.payload):
		return fmt.Errorf("%w: payload length %d != %d", ErrIncompatible, len(s.payload), len(other.payload))
	}
	return nil
}
