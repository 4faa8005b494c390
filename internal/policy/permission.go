// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "fmt"

// PermissionType is the polarity of a user-specific permission grant.
type PermissionType string

const (
	PermissionAllow PermissionType = "ALLOW"
	PermissionDeny  PermissionType = "DENY"
)

// Valid reports whether p is ALLOW or DENY.
func (p PermissionType) Valid() bool {
	return p == PermissionAllow || p == PermissionDeny
}

// Resolve combines two permission polarities. DENY strictly outranks
// ALLOW regardless of order, recency, or specificity.
func Resolve(a, b PermissionType) PermissionType {
	if a == PermissionDeny || b == PermissionDeny {
		return PermissionDeny
	}
	return PermissionAllow
}

// ResolveAll folds a set of polarities with DENY-wins semantics.
// An empty set resolves to ALLOW; callers must check emptiness first if
// absence should mean "no opinion".
func ResolveAll(types []PermissionType) PermissionType {
	out := PermissionAllow
	for _, t := range types {
		out = Resolve(out, t)
	}
	return out
}

// ParsePermissionType converts a string to a PermissionType.
func ParsePermissionType(v string) (PermissionType, error) {
	p := PermissionType(v)
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission type: %q", v)
	}
	return p, nil
}
