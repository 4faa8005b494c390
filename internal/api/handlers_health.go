// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fabricmesh/policygate/internal/logging"
)

const readinessProbeTimeout = 5 * time.Second

type healthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It reports process
// liveness only and never consults dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(healthStatus{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HealthReady handles GET /api/v1/health/ready. It probes every
// registered dependency and returns 503 when any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true
	for _, probe := range h.checks {
		if err := probe.Check(ctx); err != nil {
			checks[probe.Name] = err.Error()
			healthy = false
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("check", probe.Name).
				Msg("Readiness check failed")
			continue
		}
		checks[probe.Name] = "ok"
	}

	status := healthStatus{
		Status:  "ready",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  checks,
	}

	if !healthy {
		status.Status = "degraded"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"one or more dependencies are unavailable", status)
		return
	}

	rw.Success(status)
}
