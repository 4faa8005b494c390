// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

//go:build !nats

package main

import (
	"context"

	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/config"
	"github.com/fabricmesh/policygate/internal/logging"
)

// NATSComponents is a stub for non-NATS builds.
type NATSComponents struct{}

// InitNATS is a no-op stub for non-NATS builds.
func InitNATS(cfg *config.Config) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("nats.enabled is set but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// AuditPublisher returns nil for non-NATS builds.
func (c *NATSComponents) AuditPublisher() audit.Publisher {
	return nil
}

// Shutdown is a no-op stub for non-NATS builds.
func (c *NATSComponents) Shutdown(_ context.Context) {}
