// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package metrics provides Prometheus instrumentation for the policy
// decision engine: decision outcomes per policy layer, evaluation
// latency, decision cache efficiency, and audit pipeline health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decision metrics
	PolicyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_decisions_total",
			Help: "Total number of policy decisions by outcome and deciding layer",
		},
		[]string{"outcome", "policy"},
	)

	PolicyEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_evaluation_duration_seconds",
			Help:    "Duration of policy evaluations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	// Decision cache metrics
	DecisionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_decision_cache_hits_total",
			Help: "Total number of decision cache hits",
		},
	)

	DecisionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_decision_cache_misses_total",
			Help: "Total number of decision cache misses",
		},
	)

	DecisionCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_decision_cache_evictions_total",
			Help: "Total number of explicit decision cache evictions",
		},
		[]string{"kind"}, // "key", "user", "endpoint", "clear"
	)

	// Registry metrics
	RegistryLookupErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_registry_lookup_errors_total",
			Help: "Total number of failed guardrail/grant store lookups",
		},
		[]string{"store"}, // "guardrail", "grant"
	)

	// Audit pipeline metrics
	AuditWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_audit_writes_total",
			Help: "Total number of durable audit writes by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	AuditPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_audit_publishes_total",
			Help: "Total number of best-effort audit event publishes by result",
		},
		[]string{"result"}, // "ok", "error", "dropped"
	)

	AuditWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_audit_write_duration_seconds",
			Help:    "Duration of durable audit writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	EnforcementRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enforcement_rejections_total",
			Help: "Total number of requests rejected at an enforcement point",
		},
		[]string{"layer", "reason"}, // layer: "edge", "service"
	)
)

// ObserveEvaluation records one engine evaluation.
func ObserveEvaluation(allowed bool, policyName string, d time.Duration) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	PolicyDecisions.WithLabelValues(outcome, policyName).Inc()
	PolicyEvaluationDuration.Observe(d.Seconds())
}
