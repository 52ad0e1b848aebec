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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-keyrecover/pkg/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestSlogAdapter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Format: "json", Writer: &buf})

	log.With(SetID(0x0abc)).Info("share accepted", Int("index", 3), Bool("complete", false))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "share accepted", rec["msg"])
	assert.Equal(t, "0abc", rec["set_id"])
	assert.Equal(t, float64(3), rec["index"])
	assert.Equal(t, false, rec["complete"])
}

func TestSlogAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Level: LevelWarn, Writer: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown", Error(errors.New("boom")))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "boom")
}

func TestSlogAdapter_RequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogAdapter(&SlogConfig{Writer: &buf})

	ctx := correlation.WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "handled")

	assert.True(t, strings.Contains(buf.String(), "request_id=req-42"), buf.String())
}

func TestSlogAdapter_WithDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	parent := NewSlogAdapter(&SlogConfig{Writer: &buf})
	_ = parent.With(String("child", "yes"))

	parent.Info("parent only")
	assert.NotContains(t, buf.String(), "child=yes")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("ignored")
	assert.NotNil(t, log.With(String("k", "v")))
}
