// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "time"

// GrantStatus is the lifecycle state of a PermissionGrant.
type GrantStatus string

const (
	// GrantActive is the state of a grant in force (subject to its
	// validity window).
	GrantActive GrantStatus = "ACTIVE"

	// GrantExpired is a bookkeeping state a sweep may set once the
	// validity window has passed. Effectiveness is decided lazily from
	// the window, so a sweep is optional.
	GrantExpired GrantStatus = "EXPIRED"

	// GrantRevoked is set by an explicit administrative revoke.
	GrantRevoked GrantStatus = "REVOKED"
)

// PermissionGrant is a user-specific, time-bound ALLOW/DENY override for
// one endpoint+operation. Grants are created by administrative action
// and outrank role defaults; a DENY grant outranks everything below the
// platform guardrail layer.
type PermissionGrant struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Endpoint  string         `json:"endpoint"`
	Operation OperationType  `json:"operation"`
	Scope     DataScope      `json:"scope,omitempty"`
	Type      PermissionType `json:"permission_type"`

	// Validity window. Nil bounds are unbounded.
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	GrantedBy string      `json:"granted_by,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Status    GrantStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsEffective reports whether the grant applies at instant now.
// It holds iff the status is ACTIVE and now falls within
// [ValidFrom, ValidUntil]; open bounds are treated as unbounded.
// A grant past its ValidUntil is ineffective even if no sweep has
// marked it EXPIRED yet.
func (g *PermissionGrant) IsEffective(now time.Time) bool {
	if g == nil || g.Status != GrantActive {
		return false
	}
	if g.ValidFrom != nil && now.Before(*g.ValidFrom) {
		return false
	}
	if g.ValidUntil != nil && now.After(*g.ValidUntil) {
		return false
	}
	return true
}

// Matches reports whether the grant targets the given request triple.
func (g *PermissionGrant) Matches(userID, endpoint string, op OperationType) bool {
	return g != nil && g.UserID == userID && g.Endpoint == endpoint && g.Operation == op
}
