// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package engine

import (
	"context"
	"time"

	"github.com/fabricmesh/policygate/internal/cache"
	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
	"github.com/fabricmesh/policygate/internal/registry"
)

// Recorder receives every decision for the audit trail. The durable
// write happens inside Record; the engine treats recording failures as
// observability-only and still returns the decision.
type Recorder interface {
	Record(ctx context.Context, pctx *policy.PolicyContext, decision *policy.PolicyDecision) error
}

// Engine is the policy decision point. All dependencies are injected
// at construction; the engine itself is stateless and safe for
// concurrent use.
type Engine struct {
	guardrails registry.GuardrailStore
	grants     registry.GrantStore
	cache      *cache.DecisionCache
	recorder   Recorder
}

// New creates an Engine. recorder may be nil in tests that do not
// exercise the audit trail.
func New(guardrails registry.GuardrailStore, grants registry.GrantStore, dc *cache.DecisionCache, recorder Recorder) *Engine {
	return &Engine{
		guardrails: guardrails,
		grants:     grants,
		cache:      dc,
		recorder:   recorder,
	}
}

// Evaluate produces an allow/deny decision for the given context. It
// never returns an error: any internal failure resolves to a DENY
// decision (fail-closed).
func (e *Engine) Evaluate(ctx context.Context, pctx *policy.PolicyContext) (decision *policy.PolicyDecision) {
	start := time.Now()

	// A panic in any layer must deny, not crash the caller.
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Msg("Policy evaluation panicked, denying")
			decision = policy.Deny(pctx, ReasonEvaluationErr, PolicyEngine, PolicyVersion)
			e.finish(ctx, pctx, decision, start, false)
		}
	}()

	if err := pctx.Validate(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Policy context rejected")
		decision = policy.Deny(pctx, ReasonInvalidContext, PolicyEngine, PolicyVersion)
		e.finish(ctx, pctx, decision, start, false)
		return decision
	}

	// Trusted internal service principals bypass policy layers.
	if pctx.Internal {
		decision = policy.Allow(pctx, ReasonInternalService, PolicyInternal, PolicyVersion)
		e.finish(ctx, pctx, decision, start, false)
		return decision
	}

	key, cacheable := cache.BuildKey(pctx.UserID, pctx.Endpoint, pctx.Operation)

	// Layer 1: cache.
	if cacheable {
		if cached := e.cache.Get(key); cached != nil {
			hit := *cached
			hit.CacheHit = true
			hit.CorrelationID = pctx.CorrelationID
			hit.RequestID = pctx.RequestID
			metrics.PolicyDecisions.WithLabelValues(outcomeLabel(hit.Allowed), PolicyCache).Inc()
			return &hit
		}
	}

	decision = e.evaluateLayers(ctx, pctx)
	decision.EvaluationDurationMs = time.Since(start).Milliseconds()

	if cacheable {
		e.cache.Put(key, decision)
	}
	e.finish(ctx, pctx, decision, start, true)
	return decision
}

// evaluateLayers runs the ordered policy layers after cache miss.
func (e *Engine) evaluateLayers(ctx context.Context, pctx *policy.PolicyContext) *policy.PolicyDecision {
	// Layer 2: company relationship baseline. This matrix cannot be
	// overridden by any guardrail row or user grant.
	if reason := checkRelationshipBaseline(pctx); reason != "" {
		return policy.Deny(pctx, reason, PolicyGuardrail, PolicyVersion)
	}

	// Layer 3: platform guardrail. A lookup failure is conclusive:
	// the system fails closed rather than silently skipping the layer.
	guardrail, err := e.guardrails.FindGuardrail(ctx, pctx.Endpoint, pctx.Operation)
	if err != nil {
		metrics.RegistryLookupErrors.WithLabelValues("guardrail").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("endpoint", pctx.Endpoint).
			Msg("Guardrail lookup failed, denying")
		return policy.Deny(pctx, ReasonPlatformLookupFailed, PolicyPlatform, PolicyVersion)
	}
	if guardrail != nil && !guardrail.AllowsKind(pctx.Relationship) {
		return policy.Deny(pctx, ReasonPlatformCompanyTypeDenied, PolicyPlatform, PolicyVersion)
	}

	// Layer 4: user permission overrides, DENY-wins across matches.
	grants, err := e.grants.FindEffectiveGrants(ctx, pctx.UserID, pctx.Endpoint, pctx.Operation)
	if err != nil {
		metrics.RegistryLookupErrors.WithLabelValues("grant").Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", pctx.UserID).
			Msg("Grant lookup failed, denying")
		return policy.Deny(pctx, ReasonGrantLookupFailed, PolicyUserGrant, PolicyVersion)
	}
	if len(grants) > 0 {
		types := make([]policy.PermissionType, len(grants))
		for i := range grants {
			types[i] = grants[i].Type
		}
		if policy.ResolveAll(types) == policy.PermissionDeny {
			return policy.Deny(pctx, ReasonGrantExplicitDeny, PolicyUserGrant, PolicyVersion)
		}
		return policy.Allow(pctx, ReasonGrantExplicitAllow, PolicyUserGrant, PolicyVersion)
	}

	// Layer 5: role and scope defaults.
	if reason := checkScope(pctx, guardrail); reason != "" {
		return policy.Deny(pctx, reason, PolicyScopeDefault, PolicyVersion)
	}
	if !checkRoleDefault(pctx, guardrail) {
		return policy.Deny(pctx, ReasonRoleDefaultDenied, PolicyRoleDefault, PolicyVersion)
	}
	return policy.Allow(pctx, ReasonRoleDefaultAllowed, PolicyRoleDefault, PolicyVersion)
}

// finish records metrics and hands the decision to the audit trail.
// Recording failures are logged, never surfaced: the decision stands.
func (e *Engine) finish(ctx context.Context, pctx *policy.PolicyContext, d *policy.PolicyDecision, start time.Time, timed bool) {
	if !timed {
		d.EvaluationDurationMs = time.Since(start).Milliseconds()
	}
	metrics.ObserveEvaluation(d.Allowed, d.PolicyName, time.Since(start))

	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, pctx, d); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", d.UserID).
			Str("endpoint", d.Endpoint).
			Msg("Audit record failed for policy decision")
	}
}

func outcomeLabel(allowed bool) string {
	if allowed {
		return "allow"
	}
	return "deny"
}
