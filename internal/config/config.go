// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

// Package config holds all application configuration loaded from
// defaults, an optional YAML config file, and environment variables,
// in that order of precedence (env highest).
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Vigilo server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	NATS       NATSConfig       `koanf:"nats"`
	Database   DatabaseConfig   `koanf:"database"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds the token authority and rate limit settings.
type SecurityConfig struct {
	// JWTSecret signs tokens. Minimum 32 bytes; required in production.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL bounds both the token expiry and the grant TTL in the
	// revocation store.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// GrantStorePath is the Badger directory for grants and snapshots.
	// Empty means in-memory (grants do not survive restarts, which
	// revokes all outstanding tokens).
	GrantStorePath string `koanf:"grant_store_path"`

	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// ServiceNames are the service principals allowed to request
	// service tokens.
	ServiceNames []string `koanf:"service_names"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds role matrix settings. An empty PolicyPath uses
// the embedded policy.
type CasbinConfig struct {
	PolicyPath   string        `koanf:"policy_path"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// NATSConfig holds queue transport settings for the detection and
// alert streams.
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	SubscribersCount int    `koanf:"subscribers_count"`
	DurableName      string `koanf:"durable_name"`
	QueueGroup       string `koanf:"queue_group"`

	// AckWait is how long JetStream waits for an ack before
	// redelivering an item popped but never committed.
	AckWait time.Duration `koanf:"ack_wait"`

	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	PoisonTopic          string        `koanf:"poison_topic"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file. Empty opens an in-memory database.
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// SnapshotConfig holds detection snapshot settings.
type SnapshotConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// ClassifierConfig holds threat classifier settings.
type ClassifierConfig struct {
	// WeightsPath points at a JSON logistic-model weights file. Empty
	// uses the rule-based scorer.
	WeightsPath string `koanf:"weights_path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for fatal misconfiguration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.Security.TokenTTL)
	}
	if len(c.Security.JWTSecret) < 32 {
		if c.Server.Environment == "production" {
			return fmt.Errorf("jwt_secret must be at least 32 characters in production")
		}
		if c.Security.JWTSecret != "" {
			return fmt.Errorf("jwt_secret must be at least 32 characters")
		}
	}
	if c.Security.AdminPassword == "" && c.Server.Environment == "production" {
		return fmt.Errorf("admin_password is required in production")
	}
	if c.NATS.SubscribersCount < 1 {
		return fmt.Errorf("nats subscribers_count must be at least 1")
	}
	if c.NATS.AckWait <= 0 {
		return fmt.Errorf("nats ack_wait must be positive")
	}
	if c.Snapshot.TTL <= 0 {
		return fmt.Errorf("snapshot ttl must be positive")
	}
	return nil
}
