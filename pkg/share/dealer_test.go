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
	"crypto/sha256"
	"io"
	"testing"

	"github.com/jeremyhahn/go-keyrecover/pkg/gf256"
	"github.com/jeremyhahn/go-keyrecover/pkg/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromLog(c byte) byte {
	if c == 0xff {
		return 0
	}
	return gf256.QRCodeField.Exp(int(c))
}

func TestDeterministicReader_HashChain(t *testing.T) {
	secret := testPayload()

	first := sha256.Sum256(append(append([]byte{}, secret...), 0x00))
	second := sha256.Sum256(first[:])
	want := make([]byte, 0, 64)
	for _, c := range append(first[:], second[:]...) {
		want = append(want, fromLog(c))
	}

	got := make([]byte, 64)
	_, err := io.ReadFull(DeterministicReader(secret), got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeterministicReader_ChunkedReads(t *testing.T) {
	secret := testPayload()

	whole := make([]byte, 100)
	_, err := io.ReadFull(DeterministicReader(secret), whole)
	require.NoError(t, err)

	r := DeterministicReader(secret)
	var pieced []byte
	for _, n := range []int{1, 7, 24, 33, 35} {
		buf := make([]byte, n)
		_, err := io.ReadFull(r, buf)
		require.NoError(t, err)
		pieced = append(pieced, buf...)
	}
	assert.Equal(t, whole, pieced)
}

func TestDealDeterministic(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		total     int
	}{
		{"2 of 3", 2, 3},
		{"3 of 5", 3, 5},
		{"1 of 1", 1, 1},
		{"4 of 15", 4, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret := testPayload()

			a, err := DealDeterministic(secret, tt.threshold, tt.total)
			require.NoError(t, err)
			b, err := DealDeterministic(secret, tt.threshold, tt.total)
			require.NoError(t, err)
			require.Len(t, a, tt.total)

			for i := range a {
				assert.Equal(t, a[i].String(), b[i].String())
			}

			points := make([]shamir.Point, 0, tt.threshold)
			for _, s := range a[len(a)-tt.threshold:] {
				points = append(points, s.Point())
			}
			got, err := shamir.Combine(points)
			require.NoError(t, err)
			assert.Equal(t, secret, got)
		})
	}
}

func TestDealDeterministic_DependsOnSecret(t *testing.T) {
	a, err := DealDeterministic(testPayload(), 2, 3)
	require.NoError(t, err)

	other := testPayload()
	other[10] ^= 0x01
	b, err := DealDeterministic(other, 2, 3)
	require.NoError(t, err)

	assert.NotEqual(t, a[0].String(), b[0].String())
}
