// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fabricmesh/policygate/internal/enforce"
	"github.com/fabricmesh/policygate/internal/middleware"
)

// Router wires the admin API handlers into a Chi router.
type Router struct {
	handler *Handler
	chimw   *ChiMiddleware
	enforce *enforce.Middleware
}

// NewRouter creates a router. The enforcement middleware may be nil,
// in which case admin endpoints are served without policy checks
// (useful in tests; production wiring always passes one).
func NewRouter(handler *Handler, chimw *ChiMiddleware, enforceMW *enforce.Middleware) *Router {
	if chimw == nil {
		chimw = NewChiMiddleware(nil)
	}
	return &Router{
		handler: handler,
		chimw:   chimw,
		enforce: enforceMW,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chimw.CORS())

	// Health endpoints bypass enforcement; orchestrators probe them
	// without credentials.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chimw.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus scrape endpoint, also unauthenticated.
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Admin endpoints go through the policy enforcement middleware so
	// the engine governs its own management surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chimw.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		if router.enforce != nil {
			r.Use(router.enforce.Enforce)
		}

		r.Post("/grants", router.handler.CreateGrant)
		r.Delete("/grants/{id}", router.handler.RevokeGrant)
		r.Get("/users/{userID}/grants", router.handler.ListUserGrants)

		r.Put("/guardrails", router.handler.SetGuardrail)

		r.Get("/audit/decisions", router.handler.AuditDecisions)
		r.Get("/audit/denials", router.handler.AuditDenials)
		r.Get("/audit/stats", router.handler.AuditStats)

		r.Get("/cache/stats", router.handler.CacheStats)
		r.Post("/cache/flush", router.handler.CacheFlush)
	})

	return r
}
