// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package policy defines the decision vocabulary of the policy engine:
// operation kinds, data-visibility scopes, company relationship kinds,
// and permission polarity, plus the value types that flow through an
// evaluation (PolicyContext, PolicyDecision) and the persisted policy
// entities (PermissionGrant, PlatformGuardrail).
//
// All enum types are closed sum types with exhaustive switches in their
// methods. Adding a new relationship kind or operation deliberately
// breaks compilation of every dependent decision table so the tables
// are revisited rather than silently defaulted.
package policy
