// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8086 {
		t.Errorf("Server.Port = %d, want 8086", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Registry.Store != "badger" {
		t.Errorf("Registry.Store = %q", cfg.Registry.Store)
	}
	if cfg.Audit.QueueSize != 1000 {
		t.Errorf("Audit.QueueSize = %d", cfg.Audit.QueueSize)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
  environment: staging
cache:
  ttl: 2m
registry:
  store: memory
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Registry.Store != "memory" {
		t.Errorf("Registry.Store = %q", cfg.Registry.Store)
	}
	// Untouched sections keep defaults.
	if cfg.Audit.Store != "duckdb" {
		t.Errorf("Audit.Store = %q", cfg.Audit.Store)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("POLICYGATE_SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
}

func TestLoad_SliceFromEnv(t *testing.T) {
	t.Setenv("POLICYGATE_SECURITY_PUBLIC_PATHS", "/health, /metrics ,/auth")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/health", "/metrics", "/auth"}
	if len(cfg.Security.PublicPaths) != len(want) {
		t.Fatalf("PublicPaths = %v", cfg.Security.PublicPaths)
	}
	for i := range want {
		if cfg.Security.PublicPaths[i] != want[i] {
			t.Errorf("PublicPaths[%d] = %q, want %q", i, cfg.Security.PublicPaths[i], want[i])
		}
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"POLICYGATE_SERVER_PORT", "server.port"},
		{"POLICYGATE_CACHE_TTL", "cache.ttl"},
		{"POLICYGATE_SECURITY_JWT_SECRET", "security.jwt_secret"},
		{"POLICYGATE_AUDIT_RETENTION_DAYS", "audit.retention_days"},
		{"POLICYGATE_NATS_STREAM_RETENTION_DAYS", "nats.stream_retention_days"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "Port"},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }, "Environment"},
		{"production requires secret", func(c *Config) { c.Server.Environment = "production" }, "jwt_secret"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "32 characters"},
		{"badger needs path", func(c *Config) { c.Registry.Path = "" }, "registry.path"},
		{"duckdb needs path", func(c *Config) { c.Audit.Path = "" }, "audit.path"},
		{"bad registry store", func(c *Config) { c.Registry.Store = "postgres" }, "Store"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate returned nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
