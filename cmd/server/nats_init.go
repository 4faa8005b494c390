// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

//go:build nats

package main

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/config"
	"github.com/fabricmesh/policygate/internal/events"
	"github.com/fabricmesh/policygate/internal/logging"
)

// NATSComponents holds the NATS pieces for lifecycle management.
type NATSComponents struct {
	server    *events.EmbeddedServer
	conn      *natsgo.Conn
	publisher *events.Publisher
}

// InitNATS wires up audit stream publishing when nats.enabled is set:
// optionally an embedded JetStream server, the POLICY_AUDIT stream,
// and a circuit-breaker-wrapped publisher. Returns nil when disabled.
func InitNATS(cfg *config.Config) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS audit stream publishing disabled")
		return nil, nil
	}

	components := &NATSComponents{}

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := events.DefaultServerConfig(cfg.NATS.StoreDir)
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}

		server, err := events.NewEmbeddedServer(serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := events.DefaultStreamConfig()
	if cfg.NATS.StreamRetentionDays > 0 {
		streamCfg.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour
	}

	initializer, err := events.NewStreamInitializer(js, streamCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}

	stream, err := initializer.EnsureStream(context.Background())
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure audit stream: %w", err)
	}
	info := stream.CachedInfo()
	logging.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Msg("JetStream audit stream ready")

	publisher, err := events.NewPublisher(events.DefaultPublisherConfig(natsURL), nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create audit publisher: %w", err)
	}
	publisher.SetCircuitBreaker(events.NewAuditBreaker())
	components.publisher = publisher
	logging.Info().Msg("NATS audit publisher created")

	return components, nil
}

// AuditPublisher returns the stream publisher, or nil when not wired.
func (c *NATSComponents) AuditPublisher() audit.Publisher {
	if c == nil || c.publisher == nil {
		return nil
	}
	return c.publisher
}

// Shutdown closes the publisher, connection, and embedded server in
// dependency order.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS publisher")
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
