// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

// PlatformGuardrail is a platform-level registry entry restricting which
// company relationship kinds may call an endpoint+operation. Guardrails
// are created by platform administration and are read-only from the
// engine's perspective. A guardrail denial cannot be overridden by any
// user-level grant.
type PlatformGuardrail struct {
	ID           string                    `json:"id"`
	Endpoint     string                    `json:"endpoint"`
	Operation    OperationType             `json:"operation"`
	AllowedKinds []CompanyRelationshipKind `json:"allowed_company_types"`

	// DefaultRoles optionally names roles that have default access to
	// the endpoint without an explicit grant. Empty means the engine's
	// role fallback applies.
	DefaultRoles []string `json:"default_roles,omitempty"`

	// RequiredScope optionally declares the minimum data scope the
	// endpoint operates at.
	RequiredScope DataScope `json:"required_scope,omitempty"`

	Active bool `json:"active"`
}

// AllowsKind reports whether the guardrail's allow-list contains the
// given relationship kind. An empty allow-list allows no one; platform
// administration must list kinds explicitly.
func (g *PlatformGuardrail) AllowsKind(kind CompanyRelationshipKind) bool {
	if g == nil {
		return false
	}
	for _, k := range g.AllowedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AllowsRole reports whether role appears in the guardrail's default
// role list.
func (g *PlatformGuardrail) AllowsRole(role string) bool {
	if g == nil {
		return false
	}
	for _, r := range g.DefaultRoles {
		if r == role {
			return true
		}
	}
	return false
}
