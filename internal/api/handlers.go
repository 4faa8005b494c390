// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"context"
	"time"

	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/cache"
	"github.com/fabricmesh/policygate/internal/registry"
)

// ReadinessCheck reports whether a named dependency is healthy.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler holds the dependencies for all admin endpoints.
type Handler struct {
	registry  *registry.Service
	audit     *audit.Service
	decisions *cache.DecisionCache
	checks    []ReadinessCheck
	startTime time.Time
	version   string
}

// NewHandler creates a new admin API handler.
func NewHandler(reg *registry.Service, auditSvc *audit.Service, decisions *cache.DecisionCache, version string) *Handler {
	return &Handler{
		registry:  reg,
		audit:     auditSvc,
		decisions: decisions,
		startTime: time.Now(),
		version:   version,
	}
}

// AddReadinessCheck registers a dependency probe for the readiness endpoint.
func (h *Handler) AddReadinessCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, ReadinessCheck{Name: name, Check: check})
}
