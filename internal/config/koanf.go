// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vigilo/config.yaml",
	"/etc/vigilo/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "VIGILO_CONFIG_PATH"

// envPrefix namespaces Vigilo environment variables:
// VIGILO_SERVER_PORT -> server.port.
const envPrefix = "VIGILO_"

// Default returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8470,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			JWTSecret:      "",
			TokenTTL:       time.Hour,
			GrantStorePath: "",
			AdminUsername:  "admin",
			AdminPassword:  "",
			ServiceNames: []string{
				"camera-ingest",
				"threat-classifier",
				"alert-engine",
				"api-gateway",
			},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			Casbin: CasbinConfig{
				PolicyPath:   "",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		NATS: NATSConfig{
			URL:                  "nats://127.0.0.1:4222",
			EmbeddedServer:       true,
			StoreDir:             "/data/nats/jetstream",
			MaxMemory:            1 << 30,
			MaxStore:             10 << 30,
			SubscribersCount:     4,
			DurableName:          "vigilo-processor",
			QueueGroup:           "processors",
			AckWait:              30 * time.Second,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			PoisonTopic:          "detections.poison",
			CloseTimeout:         30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/vigilo.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Snapshot: SnapshotConfig{
			TTL: time.Hour,
		},
		Classifier: ClassifierConfig{
			WeightsPath: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds configuration from layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. VIGILO_* environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they
// arrive from environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.service_names",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps VIGILO_* variables to koanf paths. The first
// underscore-delimited token selects the section; nested sections use
// a second token.
//
// Examples:
//   - VIGILO_SERVER_PORT          -> server.port
//   - VIGILO_SECURITY_JWT_SECRET  -> security.jwt_secret
//   - VIGILO_NATS_ACK_WAIT        -> nats.ack_wait
//   - VIGILO_DATABASE_PATH        -> database.path
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	sections := []string{
		"server", "security", "nats", "database", "snapshot",
		"classifier", "logging",
	}
	for _, section := range sections {
		prefix := section + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		// One nested section: security.casbin.*
		if section == "security" && strings.HasPrefix(rest, "casbin_") {
			return "security.casbin." + strings.TrimPrefix(rest, "casbin_")
		}
		return section + "." + rest
	}

	// Unmapped keys are skipped so stray environment variables cannot
	// pollute the config.
	return ""
}
