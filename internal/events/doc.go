// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package events publishes policy audit events to NATS JetStream.
//
// The publisher, stream provisioning, and embedded broker are compiled
// behind the nats build tag. Without the tag, stub implementations
// return errors from their constructors so the service can run with
// stream publication disabled.
package events
