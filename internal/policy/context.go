// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import (
	"errors"
	"time"
)

// ErrInvalidContext is returned when a PolicyContext is missing required
// identity or resource fields.
var ErrInvalidContext = errors.New("invalid policy context")

// PolicyContext carries everything the engine needs to evaluate one
// request. It is built fresh per call by an enforcement point, is never
// persisted, and must not be mutated after construction.
type PolicyContext struct {
	// Identity
	UserID       string                  `json:"user_id"`
	CompanyID    string                  `json:"company_id"`
	Roles        []string                `json:"roles,omitempty"`
	Relationship CompanyRelationshipKind `json:"company_relationship"`

	// Resource
	Endpoint  string        `json:"endpoint"`
	Operation OperationType `json:"operation"`
	Scope     DataScope     `json:"scope,omitempty"`

	// Trace metadata
	CorrelationID string    `json:"correlation_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	RequestIP     string    `json:"request_ip,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	// Internal marks requests from a trusted internal service principal.
	// Those bypass guardrail and grant evaluation entirely.
	Internal bool `json:"internal,omitempty"`
}

// Validate checks the fields every evaluation requires. A context
// missing userId or operation is rejected before any policy layer runs.
func (c *PolicyContext) Validate() error {
	if c == nil {
		return ErrInvalidContext
	}
	if c.UserID == "" {
		return errors.Join(ErrInvalidContext, errors.New("missing user id"))
	}
	if c.Endpoint == "" {
		return errors.Join(ErrInvalidContext, errors.New("missing endpoint"))
	}
	if !c.Operation.Valid() {
		return errors.Join(ErrInvalidContext, errors.New("missing or unknown operation"))
	}
	return nil
}

// HasAnyRole reports whether the caller holds at least one of the given
// roles.
func (c *PolicyContext) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
