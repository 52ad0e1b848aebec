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

package config

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeremyhahn/go-keyrecover/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyrecover.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8420", cfg.Server.Address())
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "0.0.0.0"
  port: 9000
  read_timeout: 5s
logging:
  level: debug
  format: json
ratelimit:
  enabled: true
  requests_per_minute: 30
  burst: 5
  trust_proxy: true
metrics:
  enabled: false
sessions:
  ttl: 2m
  max_sessions: 8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	// Unset keys keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.RateLimit.TrustProxy)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, 8, cfg.Sessions.MaxSessions)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "server: [not, a, map"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "server:\n  port: 0\n"))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvHost, "10.1.2.3")
	t.Setenv(EnvPort, "9443")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvSessionTTL, "90s")

	cfg, err := Load(writeConfig(t, "server:\n  host: localhost\n  port: 8000\n"))
	require.NoError(t, err)

	assert.Equal(t, "10.1.2.3", cfg.Server.Host)
	assert.Equal(t, 9443, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 90*time.Second, cfg.Sessions.TTL)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", EnvPort, "https"},
		{"port out of range", EnvPort, "70000"},
		{"ttl not a duration", EnvSessionTTL, "forever"},
		{"unknown level", EnvLogLevel, "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 65536 }, "invalid port"},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "max_body_bytes"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "unknown log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"tls cert", func(c *Config) { c.TLS = TLSConfig{Enabled: true, KeyFile: "k"} }, "cert_file"},
		{"tls key", func(c *Config) { c.TLS = TLSConfig{Enabled: true, CertFile: "c"} }, "key_file"},
		{"rate", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "requests_per_minute"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics path"},
		{"ttl", func(c *Config) { c.Sessions.TTL = time.Millisecond }, "session ttl"},
		{"max sessions", func(c *Config) { c.Sessions.MaxSessions = -1 }, "max_sessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestTLSConfig_Load(t *testing.T) {
	cfg := &TLSConfig{}
	tlsCfg, err := cfg.Load()
	require.NoError(t, err)
	assert.Nil(t, tlsCfg)

	cfg = &TLSConfig{Enabled: true, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}
	_, err = cfg.Load()
	assert.ErrorContains(t, err, "failed to load server certificate")

	cert := testutil.WriteServerCert(t)
	cfg = &TLSConfig{Enabled: true, CertFile: cert.CertFile, KeyFile: cert.KeyFile, MinVersion: "TLS1.3"}
	tlsCfg, err = cfg.Load()
	require.NoError(t, err)
	require.NotNil(t, tlsCfg)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS13), tlsCfg.MinVersion)

	cfg.MinVersion = "SSL3"
	_, err = cfg.Load()
	assert.ErrorContains(t, err, "unsupported TLS min_version")
}

func TestParseTLSVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"", tls.VersionTLS12, false},
		{"TLS1.2", tls.VersionTLS12, false},
		{"tls1.3", tls.VersionTLS13, false},
		{"TLS1.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTLSVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
