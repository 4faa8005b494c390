// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"net/http"

	"github.com/fabricmesh/policygate/internal/logging"
)

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.decisions.Stats())
}

// CacheFlush handles POST /api/v1/cache/flush. It drops every cached
// decision; subsequent requests re-evaluate against current policy.
func (h *Handler) CacheFlush(w http.ResponseWriter, r *http.Request) {
	h.decisions.Clear()
	logging.Ctx(r.Context()).Info().Msg("Decision cache flushed")
	NewResponseWriter(w, r).Success(map[string]string{"status": "flushed"})
}
