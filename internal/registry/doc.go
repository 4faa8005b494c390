// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package registry provides read access to platform guardrails and
// user-specific permission grants, plus the administrative write paths
// (grant, revoke, expiry sweep) that sit off the hot evaluation path.
//
// Persistence hides behind two narrow interfaces, GuardrailStore and
// GrantStore. In-memory implementations back tests and small
// deployments; BadgerDB implementations provide durable storage. The
// administrative Service invalidates the decision cache for the
// affected user or endpoint on every mutation.
package registry
