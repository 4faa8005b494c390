// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package audit persists policy decision history and feeds the audit
// event stream.
//
// Every decision the engine produces is written synchronously to a
// Store before the evaluation returns, so the durable trail is never
// behind the decisions actually served. Stream publication to the
// message broker is decoupled: records are queued and published by a
// background worker, and a broker outage degrades to dropped stream
// events plus metrics, never to failed or delayed decisions.
//
// Two Store implementations are provided: a DuckDB-backed store for
// production and a bounded in-memory store for tests and ephemeral
// deployments.
package audit
