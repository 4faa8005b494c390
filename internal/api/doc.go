// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package api exposes the administrative HTTP surface of the policy
// engine: grant and guardrail management, audit trail queries, decision
// cache introspection, and health endpoints.
//
// The admin routes are themselves enforced by the policy engine via the
// enforce middleware, so managing policy requires policy permitting it.
// Health and metrics endpoints stay open for orchestrators and scrapers.
package api
