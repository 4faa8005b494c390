// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package registry

import (
	"context"
	"errors"

	"github.com/fabricmesh/policygate/internal/policy"
)

// ErrGrantNotFound is returned when a grant ID does not exist.
var ErrGrantNotFound = errors.New("permission grant not found")

// GuardrailStore reads platform-level endpoint guardrails. The engine
// treats a lookup error as a conclusive deny; implementations must
// distinguish "no guardrail" (nil, nil) from "lookup failed".
type GuardrailStore interface {
	// FindGuardrail returns the active guardrail for the given
	// endpoint+operation, or (nil, nil) if none exists.
	FindGuardrail(ctx context.Context, endpoint string, op policy.OperationType) (*policy.PlatformGuardrail, error)

	// SaveGuardrail creates or replaces a guardrail. Administrative
	// path only.
	SaveGuardrail(ctx context.Context, g *policy.PlatformGuardrail) error
}

// GrantStore reads and writes user-specific permission grants.
type GrantStore interface {
	// FindEffectiveGrants returns every grant for the request triple
	// that is effective right now. The caller performs the DENY-wins
	// fold.
	FindEffectiveGrants(ctx context.Context, userID, endpoint string, op policy.OperationType) ([]policy.PermissionGrant, error)

	// SaveGrant persists a new grant.
	SaveGrant(ctx context.Context, g *policy.PermissionGrant) error

	// GetGrant returns a grant by ID, or ErrGrantNotFound.
	GetGrant(ctx context.Context, id string) (*policy.PermissionGrant, error)

	// UpdateGrantStatus transitions a grant's lifecycle status.
	UpdateGrantStatus(ctx context.Context, id string, status policy.GrantStatus) error

	// ListGrantsForUser returns all grants for a user regardless of
	// status, for the administrative surface.
	ListGrantsForUser(ctx context.Context, userID string) ([]policy.PermissionGrant, error)

	// ListExpirableGrants returns ACTIVE grants whose validity window
	// has already passed, for the bookkeeping sweep.
	ListExpirableGrants(ctx context.Context) ([]policy.PermissionGrant, error)
}
