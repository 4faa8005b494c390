// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "time"

// PolicyDecision is the outcome of one evaluation. One instance is
// produced per call to the engine; the cache retains copies for the TTL
// window.
type PolicyDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`

	// PolicyName and PolicyVersion identify the rule layer that produced
	// the result, for explainability.
	PolicyName    string `json:"policy_name"`
	PolicyVersion string `json:"policy_version"`

	// Echoed identity/resource fields.
	UserID       string                  `json:"user_id"`
	CompanyID    string                  `json:"company_id,omitempty"`
	Relationship CompanyRelationshipKind `json:"company_relationship,omitempty"`
	Endpoint     string                  `json:"endpoint"`
	Operation    OperationType           `json:"operation"`
	Scope        DataScope               `json:"scope,omitempty"`

	EvaluatedAt          time.Time `json:"evaluated_at"`
	EvaluationDurationMs int64     `json:"evaluation_duration_ms"`

	// Trace metadata copied from the originating context.
	CorrelationID string `json:"correlation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	RequestIP     string `json:"request_ip,omitempty"`

	// CacheHit marks decisions served from the decision cache.
	CacheHit bool `json:"cache_hit,omitempty"`
}

// IsExpired reports whether the decision is older than the given TTL.
// Used only by the decision cache for lazy staleness checks.
func (d *PolicyDecision) IsExpired(ttl time.Duration) bool {
	if d == nil || d.EvaluatedAt.IsZero() {
		return true
	}
	return time.Since(d.EvaluatedAt) >= ttl
}

// Allow constructs an allow decision for the given context.
func Allow(ctx *PolicyContext, reason, policyName, policyVersion string) *PolicyDecision {
	return newDecision(ctx, true, reason, policyName, policyVersion)
}

// Deny constructs a deny decision for the given context.
func Deny(ctx *PolicyContext, reason, policyName, policyVersion string) *PolicyDecision {
	return newDecision(ctx, false, reason, policyName, policyVersion)
}

func newDecision(ctx *PolicyContext, allowed bool, reason, policyName, policyVersion string) *PolicyDecision {
	d := &PolicyDecision{
		Allowed:       allowed,
		Reason:        reason,
		PolicyName:    policyName,
		PolicyVersion: policyVersion,
		EvaluatedAt:   time.Now(),
	}
	if ctx != nil {
		d.UserID = ctx.UserID
		d.CompanyID = ctx.CompanyID
		d.Relationship = ctx.Relationship
		d.Endpoint = ctx.Endpoint
		d.Operation = ctx.Operation
		d.Scope = ctx.Scope
		d.CorrelationID = ctx.CorrelationID
		d.RequestID = ctx.RequestID
		d.RequestIP = ctx.RequestIP
	}
	return d
}
