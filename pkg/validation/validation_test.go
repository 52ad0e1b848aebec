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

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateShareText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid share", "SSS-2Xg1Lr9k3P7yXfJ5bZcN", false},
		{"not a share but printable", "hello", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"null byte", "SSS-abc\x00def", true},
		{"newline", "SSS-abc\ndef", true},
		{"delete char", "SSS-abc\x7f", true},
		{"invalid utf8", "SSS-\xff\xfe", true},
		{"too long", "SSS-" + strings.Repeat("a", MaxShareLength), true},
		{"at limit", strings.Repeat("a", MaxShareLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShareText(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateWIF(t *testing.T) {
	assert.NoError(t, ValidateWIF("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"))
	assert.ErrorIs(t, ValidateWIF(""), ErrInvalidInput)
	assert.ErrorIs(t, ValidateWIF(strings.Repeat("K", MaxWIFLength+1)), ErrInvalidInput)
	assert.ErrorContains(t, ValidateWIF("\t"), "WIF cannot be empty")
}
