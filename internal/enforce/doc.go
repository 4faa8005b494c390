// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package enforce contains the two enforcement points in front of the
// policy engine.
//
// Middleware guards the HTTP edge: it authenticates the request via a
// platform bearer token or the internal API key, builds the evaluation
// context, and rejects denied requests with a JSON body carrying the
// denial reason and correlation ID. ServiceGuard guards in-process
// call sites that the edge cannot see.
//
// Both points fail closed. An unauthenticated request, a nil decision,
// or an engine failure results in a denial, never a pass-through.
package enforce
