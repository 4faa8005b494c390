// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

// Package config loads service configuration from layered sources
// using koanf v2: built-in defaults, then an optional YAML file, then
// POLICYGATE_-prefixed environment variables. Environment values win.
package config
