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
	"bytes"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-keyrecover/pkg/base58check"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	p := bytes.Repeat([]byte{0x11}, 34)
	p[0] = 0x80
	p[33] = 0x01
	return p
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		index     int
		payload   []byte
		wantErr   bool
	}{
		{"valid", 2, 1, testPayload(), false},
		{"maximum nibbles", 16, 16, testPayload(), false},
		{"zero threshold", 0, 1, testPayload(), true},
		{"threshold too large", 17, 1, testPayload(), true},
		{"zero index", 2, 0, testPayload(), true},
		{"index too large", 2, 17, testPayload(), true},
		{"short payload", 2, 1, make([]byte, 32), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(0xBEEF, tt.threshold, tt.index, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Version, s.Version())
			assert.Equal(t, uint16(0xBEEF), s.SetID())
			assert.Equal(t, tt.threshold, s.Threshold())
			assert.Equal(t, tt.index, s.Index())
		})
	}
}

func TestString_ParseRoundTrip(t *testing.T) {
	for _, tc := range []struct{ threshold, index int }{{1, 1}, {2, 3}, {16, 16}, {3, 16}} {
		s, err := New(0x0A0B, tc.threshold, tc.index, testPayload())
		require.NoError(t, err)

		text := s.String()
		assert.True(t, strings.HasPrefix(text, Prefix))

		parsed, err := Parse(text)
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
		assert.Equal(t, text, parsed.String())
	}
}

func TestBytes_Layout(t *testing.T) {
	s, err := New(0x1234, 3, 5, testPayload())
	require.NoError(t, err)

	raw := s.Bytes()
	assert.Equal(t, []byte{19, 0x12, 0x34, 0x24}, raw[:HeaderSize])
	assert.Equal(t, testPayload(), raw[HeaderSize:])
	assert.Equal(t, "1234", s.SetIDHex())
}

func TestParse_TrimsWhitespace(t *testing.T) {
	s, err := New(7, 2, 1, testPayload())
	require.NoError(t, err)

	parsed, err := Parse("  " + s.String() + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
}

func TestParse_Errors(t *testing.T) {
	valid, err := New(7, 2, 1, testPayload())
	require.NoError(t, err)
	body := valid.String()[len(Prefix):]

	wrongVersion := valid.Bytes()
	wrongVersion[0] = 20

	short := valid.Bytes()[:HeaderSize+MinPayloadSize-1]

	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrBadPrefix},
		{"no prefix", body, ErrBadPrefix},
		{"lowercase prefix", "sss-" + body, ErrBadPrefix},
		{"prefix only", Prefix, ErrBadChecksum},
		{"invalid character", Prefix + "0" + body[1:], ErrBadChecksum},
		{"tampered", Prefix + body[:10] + flip(body[10]) + body[11:], ErrBadChecksum},
		{"too short", Prefix + base58check.Encode(short), ErrBadChecksum},
		{"wrong version", Prefix + base58check.Encode(wrongVersion), ErrIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func flip(c byte) string {
	i := strings.IndexByte(base58check.Alphabet, c)
	return string(base58check.Alphabet[(i+1)%len(base58check.Alphabet)])
}

func TestShare_Immutable(t *testing.T) {
	payload := testPayload()
	s, err := New(1, 2, 1, payload)
	require.NoError(t, err)

	payload[1] = 0xFF
	got := s.Payload()
	got[2] = 0xFF
	p := s.Point()
	p.Y[3] = 0xFF

	assert.Equal(t, testPayload(), s.Payload())
}

func TestCompatibleWith(t *testing.T) {
	base, _ := New(1, 2, 1, testPayload())
	same, _ := New(1, 2, 2, testPayload())
	otherSet, _ := New(2, 2, 2, testPayload())
	otherThreshold, _ := New(1, 3, 2, testPayload())
	longer, _ := New(1, 2, 2, append(testPayload(), 0))

	assert.NoError(t, same.CompatibleWith(base))
	assert.ErrorIs(t, otherSet.CompatibleWith(base), ErrIncompatible)
	assert.ErrorIs(t, otherThreshold.CompatibleWith(base), ErrIncompatible)
	assert.ErrorIs(t, longer.CompatibleWith(base), ErrIncompatible)
}

func TestDeal_RoundTrip(t *testing.T) {
	secret := testPayload()

	shares, err := Deal(secret, 3, 5, nil)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	setID := SetIDFor(secret)
	points := make([]shamir.Point, 0, 3)
	for i, s := range shares {
		parsed, err := Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, setID, parsed.SetID())
		assert.Equal(t, 3, parsed.Threshold())
		assert.Equal(t, i+1, parsed.Index())
		if i%2 == 0 {
			points = append(points, parsed.Point())
		}
	}

	recovered, err := shamir.Combine(points)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}

func TestDeal_Validation(t *testing.T) {
	_, err := Deal(make([]byte, 32), 2, 3, nil)
	assert.Error(t, err)

	_, err = Deal(make([]byte, 35), 2, 3, nil)
	assert.Error(t, err)

	_, err = Deal(testPayload(), 4, 3, nil)
	assert.ErrorIs(t, err, shamir.ErrInvalidParameters)
}
