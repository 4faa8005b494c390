// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/fabricmesh/policygate/internal/api"
	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/cache"
	"github.com/fabricmesh/policygate/internal/config"
	"github.com/fabricmesh/policygate/internal/enforce"
	"github.com/fabricmesh/policygate/internal/engine"
	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/registry"
)

// version is set at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("registry_store", cfg.Registry.Store).
		Str("audit_store", cfg.Audit.Store).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting PolicyGate")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Decision cache, shared by the engine (reads) and the registry
	// service (invalidation on mutation).
	decisions := cache.New(cfg.Cache.TTL)

	// Guardrail and grant storage.
	guardrails, grants, closeRegistry, err := openRegistryStores(&cfg.Registry)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open registry storage")
	}
	defer closeRegistry()

	registrySvc := registry.NewService(grants, guardrails, decisions)
	go registrySvc.RunExpirySweeper(ctx, cfg.Registry.ExpirySweepInterval)

	// Decision audit trail.
	auditStore, auditDB, err := openAuditStore(ctx, &cfg.Audit)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open audit storage")
	}
	if auditDB != nil {
		defer func() {
			if err := auditDB.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit database")
			}
		}()
	}

	// Optional NATS stream publishing for the audit trail. A nil
	// publisher leaves the durable store as the only sink.
	natsComponents, err := InitNATS(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}

	auditSvc := audit.NewService(auditStore, natsPublisher(natsComponents), &audit.Config{
		QueueSize:       cfg.Audit.QueueSize,
		RetentionDays:   cfg.Audit.RetentionDays,
		CleanupInterval: cfg.Audit.CleanupInterval,
	})
	auditSvc.StartCleanupRoutine(ctx)
	defer func() {
		if err := auditSvc.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit service")
		}
	}()

	// The decision engine itself.
	eng := engine.New(guardrails, grants, decisions, auditSvc)

	// Enforcement: bearer token verification, internal service bypass,
	// and the edge middleware guarding the admin surface.
	tokens := enforce.NewTokenVerifier([]byte(cfg.Security.JWTSecret))
	internalKey, err := enforce.NewInternalKeyVerifier(cfg.Security.InternalAPIKey)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize internal API key verifier")
	}
	enforceMW := enforce.NewMiddleware(eng, tokens, internalKey, cfg.Security.PublicPaths)

	handler := api.NewHandler(registrySvc, auditSvc, decisions, version)
	handler.AddReadinessCheck("audit_store", func(ctx context.Context) error {
		_, err := auditStore.Count(ctx, audit.QueryFilter{
			Since: time.Now().Add(-time.Minute),
			Limit: 1,
		})
		return err
	})

	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Internal-API-Key", "X-Correlation-ID", "X-Data-Scope"},
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	}), enforceMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop background routines before draining the audit queue.
	cancel()

	if natsComponents != nil {
		natsComponents.Shutdown(shutdownCtx)
	}

	logging.Info().Msg("PolicyGate stopped gracefully")
}

// openRegistryStores opens the configured guardrail/grant backend and
// returns a close function for the underlying database.
func openRegistryStores(cfg *config.RegistryConfig) (registry.GuardrailStore, registry.GrantStore, func(), error) {
	if cfg.Store == "memory" {
		logging.Warn().Msg("Registry using in-memory storage; grants are lost on restart")
		return registry.NewMemoryGuardrailStore(), registry.NewMemoryGrantStore(), func() {}, nil
	}

	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open badger at %s: %w", cfg.Path, err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Registry storage opened")

	closeFn := func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing registry database")
		}
	}
	return registry.NewBadgerGuardrailStore(db), registry.NewBadgerGrantStore(db), closeFn, nil
}

// openAuditStore opens the configured audit backend. The returned
// *sql.DB is non-nil only for the DuckDB backend and must be closed by
// the caller after the audit service has drained.
func openAuditStore(ctx context.Context, cfg *config.AuditConfig) (audit.Store, *sql.DB, error) {
	if cfg.Store == "memory" {
		logging.Warn().Msg("Audit using in-memory storage; decision history is lost on restart")
		return audit.NewMemoryStore(0), nil, nil
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open duckdb at %s: %w", cfg.Path, err)
	}

	store := audit.NewDuckDBStore(db)
	if err := store.CreateTable(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create audit schema: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Audit storage opened")

	return store, db, nil
}

// natsPublisher extracts the audit publisher from the NATS components,
// returning nil when stream publishing is disabled or not compiled in.
func natsPublisher(c *NATSComponents) audit.Publisher {
	if c == nil {
		return nil
	}
	return c.AuditPublisher()
}
