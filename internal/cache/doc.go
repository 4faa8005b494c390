// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package cache implements the process-local decision cache.
//
// The cache maps a decision key ("{userId}::{endpoint}::{operation}") to
// the last decision evaluated for it. Entries expire lazily: staleness
// is checked against the TTL at read time, no background sweep runs.
// Eviction is explicit (single key, per user, per endpoint, or full
// clear) and is triggered by grant and guardrail administration.
package cache
