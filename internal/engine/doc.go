// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package engine implements the policy decision point.
//
// Evaluate runs the layers in strict order, short-circuiting on the
// first conclusive one:
//
//  1. Decision cache lookup
//  2. Company relationship baseline (cannot be overridden)
//  3. Platform guardrail for the endpoint+operation
//  4. User permission grants, folded with DENY-wins
//  5. Role and data-scope defaults
//
// The engine is total and fail-closed: a well-formed context always
// yields a decision, and any internal error (including a panic in a
// layer) resolves to DENY. Every decision is written through the cache
// and handed to the audit recorder before it is returned.
package engine
