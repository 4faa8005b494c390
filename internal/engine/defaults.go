// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package engine

import "github.com/fabricmesh/policygate/internal/policy"

// checkRelationshipBaseline applies the company relationship operation
// matrix. Returns a deny reason, or "" when the baseline is satisfied.
// Exhaustive over CompanyRelationshipKind: a new kind fails to compile
// here until its row in the matrix is decided.
func checkRelationshipBaseline(pctx *policy.PolicyContext) string {
	op := pctx.Operation
	switch pctx.Relationship {
	case policy.RelInternal:
		return ""
	case policy.RelCustomer:
		if op.IsReadOnly() {
			return ""
		}
		return ReasonGuardrailCustomerReadonly
	case policy.RelSupplier, policy.RelSubcontractor:
		if op.IsReadOnly() || op == policy.OpWrite {
			return ""
		}
		if op == policy.OpDelete {
			return ReasonGuardrailDeleteDenied
		}
		return ReasonGuardrailWriteDenied
	default:
		return ReasonGuardrailUnknownKind
	}
}

// checkScope validates the requested data scope against the caller's
// identity and, when the guardrail declares one, the endpoint's
// required scope. Returns a deny reason or "".
func checkScope(pctx *policy.PolicyContext, guardrail *policy.PlatformGuardrail) string {
	scope := pctx.Scope
	if scope == "" {
		// No scope requested: the endpoint's data filtering applies
		// downstream, nothing to validate here.
		return ""
	}

	// The endpoint's declared scope bounds what may be requested.
	if guardrail != nil && guardrail.RequiredScope != "" {
		if !guardrail.RequiredScope.Includes(scope) {
			return ReasonScopeExceedsRequired
		}
	}

	switch scope {
	case policy.ScopeSelf:
		return ""
	case policy.ScopeCompany:
		if pctx.CompanyID == "" {
			return ReasonScopeCompanyDenied
		}
		return ""
	case policy.ScopeCrossCompany:
		// Cross-company data requires a trust relationship; only the
		// operator's own organization holds one implicitly.
		if pctx.CompanyID == "" || pctx.Relationship != policy.RelInternal {
			return ReasonScopeCrossCompanyDenied
		}
		return ""
	case policy.ScopeGlobal:
		if !pctx.HasAnyRole(RoleSuperAdmin) {
			return ReasonScopeGlobalDenied
		}
		return ""
	default:
		return ReasonScopeExceedsRequired
	}
}

// checkRoleDefault reports whether the caller's roles grant default
// access. A guardrail with explicit default roles takes precedence;
// otherwise the platform fallback applies: administrative and manager
// roles have full access, USER is read-only, anything else is denied.
func checkRoleDefault(pctx *policy.PolicyContext, guardrail *policy.PlatformGuardrail) bool {
	if len(pctx.Roles) == 0 {
		return false
	}

	if guardrail != nil && len(guardrail.DefaultRoles) > 0 {
		for _, role := range pctx.Roles {
			if guardrail.AllowsRole(role) {
				return true
			}
		}
		return false
	}

	if pctx.HasAnyRole(RoleAdmin, RoleSuperAdmin, RoleSystemAdmin, RoleManager) {
		return true
	}
	if pctx.HasAnyRole(RoleUser) {
		return pctx.Operation.IsReadOnly()
	}
	return false
}
