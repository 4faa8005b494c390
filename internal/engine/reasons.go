// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package engine

// PolicyVersion identifies the decision rule set in audit records.
const PolicyVersion = "v2"

// Policy layer names, reported in PolicyDecision.PolicyName.
const (
	PolicyCache        = "cache"
	PolicyGuardrail    = "company_type_guardrail"
	PolicyPlatform     = "platform_policy"
	PolicyUserGrant    = "user_grant"
	PolicyRoleDefault  = "role_default"
	PolicyScopeDefault = "scope_default"
	PolicyInternal     = "internal_service"
	PolicyEngine       = "engine"
)

// Decision reasons. Deny reasons name the failing layer; internal
// lookup failures are reported with these generic strings and never
// expose the underlying error to the caller.
const (
	ReasonInvalidContext = "invalid_context"
	ReasonEvaluationErr  = "evaluation_error"

	ReasonGuardrailCustomerReadonly = "guardrail_customer_readonly"
	ReasonGuardrailWriteDenied      = "guardrail_limited_write_denied"
	ReasonGuardrailDeleteDenied     = "guardrail_delete_internal_only"
	ReasonGuardrailUnknownKind      = "guardrail_unknown_company_type"

	ReasonPlatformCompanyTypeDenied = "platform_policy_company_type_denied"
	ReasonPlatformLookupFailed      = "platform_policy_lookup_failed"

	ReasonGrantExplicitDeny  = "user_grant_explicit_deny"
	ReasonGrantExplicitAllow = "user_grant_explicit_allow"
	ReasonGrantLookupFailed  = "user_grant_lookup_failed"

	ReasonRoleDefaultAllowed = "role_default_allowed"
	ReasonRoleDefaultDenied  = "role_default_denied"

	ReasonScopeGlobalDenied       = "scope_global_requires_super_admin"
	ReasonScopeCrossCompanyDenied = "scope_cross_company_requires_relationship"
	ReasonScopeCompanyDenied      = "scope_company_requires_company"
	ReasonScopeExceedsRequired    = "scope_exceeds_endpoint_scope"

	ReasonInternalService = "internal_service_principal"
)

// Well-known platform roles, mirrored from the identity provider.
const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleSystemAdmin = "SYSTEM_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleManager     = "MANAGER"
	RoleUser        = "USER"
)
