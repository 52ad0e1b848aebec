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

// Package config loads the keyrecover server configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/ratelimit"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvHost       = "KEYRECOVER_HOST"
	EnvPort       = "KEYRECOVER_PORT"
	EnvLogLevel   = "KEYRECOVER_LOG_LEVEL"
	EnvLogFormat  = "KEYRECOVER_LOG_FORMAT"
	EnvSessionTTL = "KEYRECOVER_SESSION_TTL"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	TLS       TLSConfig        `yaml:"tls"`
	RateLimit ratelimit.Config `yaml:"ratelimit"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Sessions  SessionsConfig   `yaml:"sessions"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Address returns host:port for net.Listen.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SessionsConfig controls recovery sessions held by the server
type SessionsConfig struct {
	// TTL is how long an idle session is kept before it is discarded
	// together with any recovered key.
	TTL time.Duration `yaml:"ttl"`

	// MaxSessions caps concurrently open sessions. Zero means no limit.
	MaxSessions int `yaml:"max_sessions"`
}

// Default returns a configuration suitable for local use.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8420,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    64 << 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: 120,
			Burst:             30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Sessions: SessionsConfig{
			TTL:         15 * time.Minute,
			MaxSessions: 1024,
		},
	}
}

// Load reads configuration from a YAML file over Default and applies
// environment variable overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by admin/user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Server.Host = host
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if v := os.Getenv(EnvSessionTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvSessionTTL, v, err)
		}
		cfg.Sessions.TTL = ttl
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" {
			return fmt.Errorf("TLS cert_file is required when TLS is enabled")
		}
		if c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS key_file is required when TLS is enabled")
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("ratelimit requests_per_minute must be positive when enabled")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}

	if c.Sessions.TTL < time.Second {
		return fmt.Errorf("session ttl must be at least 1s, got %s", c.Sessions.TTL)
	}
	if c.Sessions.MaxSessions < 0 {
		return fmt.Errorf("max_sessions cannot be negative")
	}

	return nil
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger() logging.Logger {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return logging.NewSlogAdapter(&logging.SlogConfig{
		Level:  level,
		Format: strings.ToLower(c.Logging.Format),
	})
}
