// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package middleware provides HTTP middleware shared by the API
// router: request/correlation ID propagation and Prometheus request
// instrumentation.
package middleware
