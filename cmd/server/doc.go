// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Command server runs the PolicyGate decision engine: the evaluation
// engine with its decision cache, Badger-backed grant and guardrail
// registry, DuckDB-backed decision audit trail, the admin HTTP API,
// and optional NATS JetStream audit event publishing (build with
// -tags nats).
//
// Configuration is layered: built-in defaults, then an optional YAML
// file (CONFIG_PATH or ./config.yaml), then POLICYGATE_* environment
// variables.
package main
