// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package audit

import (
	"time"

	"github.com/fabricmesh/policygate/internal/policy"
)

// DecisionRecord is the durable snapshot of one policy decision. It
// flattens the evaluation context and outcome so a row can be queried
// without joining back to live registry state, which may have changed
// since the decision was made.
type DecisionRecord struct {
	ID          string    `json:"id"`
	EvaluatedAt time.Time `json:"evaluated_at"`

	UserID       string                         `json:"user_id"`
	CompanyID    string                         `json:"company_id,omitempty"`
	Roles        []string                       `json:"roles,omitempty"`
	Relationship policy.CompanyRelationshipKind `json:"company_relationship,omitempty"`

	Endpoint  string               `json:"endpoint"`
	Operation policy.OperationType `json:"operation"`
	Scope     policy.DataScope     `json:"scope,omitempty"`

	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	PolicyName string `json:"policy_name"`
	Version    string `json:"policy_version"`

	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"evaluation_duration_ms"`

	CorrelationID string `json:"correlation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`

	RequestIP string `json:"request_ip,omitempty"`
}

// NewDecisionRecord builds a record from an evaluation context and its
// decision. The record carries its own copy of the role slice so later
// mutation of the context cannot alter persisted history.
func NewDecisionRecord(id string, pctx *policy.PolicyContext, d *policy.PolicyDecision) *DecisionRecord {
	rec := &DecisionRecord{
		ID:          id,
		EvaluatedAt: d.EvaluatedAt,

		UserID:    d.UserID,
		Endpoint:  d.Endpoint,
		Operation: d.Operation,

		Allowed:    d.Allowed,
		Reason:     d.Reason,
		PolicyName: d.PolicyName,
		Version:    d.PolicyVersion,

		CacheHit:   d.CacheHit,
		DurationMs: d.EvaluationDurationMs,

		CorrelationID: d.CorrelationID,
		RequestID:     d.RequestID,
	}
	if rec.EvaluatedAt.IsZero() {
		rec.EvaluatedAt = time.Now().UTC()
	}
	if pctx != nil {
		rec.CompanyID = pctx.CompanyID
		rec.Relationship = pctx.Relationship
		rec.Scope = pctx.Scope
		rec.RequestIP = pctx.RequestIP
		if len(pctx.Roles) > 0 {
			rec.Roles = append([]string(nil), pctx.Roles...)
		}
	}
	return rec
}

// QueryFilter narrows decision history queries. Zero values mean
// "no constraint" except Limit, which defaults via DefaultQueryFilter.
type QueryFilter struct {
	UserID    string
	Endpoint  string
	Operation policy.OperationType
	Reason    string

	// DeniedOnly restricts results to DENY decisions.
	DeniedOnly bool

	Since time.Time
	Until time.Time

	Limit  int
	Offset int
}

// DefaultQueryFilter returns a filter covering the last 24 hours with
// a sane page size.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{
		Since: time.Now().Add(-24 * time.Hour),
		Limit: 100,
	}
}

// Stats summarizes recorded decisions over a window.
type Stats struct {
	TotalDecisions int64            `json:"total_decisions"`
	AllowCount     int64            `json:"allow_count"`
	DenyCount      int64            `json:"deny_count"`
	CacheHitCount  int64            `json:"cache_hit_count"`
	AvgLatencyMs   float64          `json:"avg_latency_ms"`
	ByReason       map[string]int64 `json:"by_reason,omitempty"`

	OldestDecision *time.Time `json:"oldest_decision,omitempty"`
	NewestDecision *time.Time `json:"newest_decision,omitempty"`
}
