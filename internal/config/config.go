// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package config

import "time"

// Config is the root configuration for the policy decision service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Cache    CacheConfig    `koanf:"cache"`
	Registry RegistryConfig `koanf:"registry"`
	Audit    AuditConfig    `koanf:"audit"`
	NATS     NATSConfig     `koanf:"nats"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production"`
}

// SecurityConfig holds authentication and rate limit settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies platform bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// InternalAPIKey, when set, enables the trusted service bypass.
	InternalAPIKey string `koanf:"internal_api_key"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	// PublicPaths are URL prefixes exempt from policy enforcement.
	PublicPaths []string `koanf:"public_paths"`
}

// CacheConfig tunes the decision cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// RegistryConfig selects and tunes guardrail/grant storage.
type RegistryConfig struct {
	// Store is "badger" for persistent storage or "memory".
	Store string `koanf:"store" validate:"oneof=badger memory"`
	Path  string `koanf:"path"`

	// ExpirySweepInterval is how often expired grants are marked.
	ExpirySweepInterval time.Duration `koanf:"expiry_sweep_interval"`
}

// AuditConfig tunes decision history persistence.
type AuditConfig struct {
	// Store is "duckdb" for persistent history or "memory".
	Store string `koanf:"store" validate:"oneof=duckdb memory"`
	Path  string `koanf:"path"`

	QueueSize       int           `koanf:"queue_size" validate:"min=1"`
	RetentionDays   int           `koanf:"retention_days" validate:"min=0"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// NATSConfig tunes audit stream publishing.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`

	StreamRetentionDays int `koanf:"stream_retention_days" validate:"min=0"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
