// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"time"

	"github.com/fabricmesh/policygate/internal/policy"
	"github.com/fabricmesh/policygate/internal/registry"
)

// CreateGrantRequest is the body for POST /api/v1/grants.
type CreateGrantRequest struct {
	UserID     string     `json:"user_id" validate:"required,max=128"`
	Endpoint   string     `json:"endpoint" validate:"required,startswith=/,max=256"`
	Operation  string     `json:"operation" validate:"required,oneof=READ EXPORT WRITE APPROVE DELETE MANAGE"`
	Scope      string     `json:"scope,omitempty" validate:"omitempty,oneof=SELF COMPANY CROSS_COMPANY GLOBAL"`
	Type       string     `json:"permission_type" validate:"required,oneof=ALLOW DENY"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	GrantedBy  string     `json:"granted_by" validate:"required,max=128"`
	Reason     string     `json:"reason,omitempty" validate:"max=512"`
}

// ToGrantRequest converts the API body to a registry grant request.
func (r *CreateGrantRequest) ToGrantRequest() *registry.GrantRequest {
	return &registry.GrantRequest{
		UserID:     r.UserID,
		Endpoint:   r.Endpoint,
		Operation:  policy.OperationType(r.Operation),
		Scope:      policy.DataScope(r.Scope),
		Type:       policy.PermissionType(r.Type),
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
		GrantedBy:  r.GrantedBy,
		Reason:     r.Reason,
	}
}

// SetGuardrailRequest is the body for PUT /api/v1/guardrails.
type SetGuardrailRequest struct {
	Endpoint      string   `json:"endpoint" validate:"required,startswith=/,max=256"`
	Operation     string   `json:"operation" validate:"required,oneof=READ EXPORT WRITE APPROVE DELETE MANAGE"`
	AllowedKinds  []string `json:"allowed_company_types" validate:"dive,oneof=INTERNAL CUSTOMER SUPPLIER SUBCONTRACTOR"`
	DefaultRoles  []string `json:"default_roles,omitempty" validate:"dive,max=64"`
	RequiredScope string   `json:"required_scope,omitempty" validate:"omitempty,oneof=SELF COMPANY CROSS_COMPANY GLOBAL"`
	Active        *bool    `json:"active,omitempty"`
}

// ToGuardrail converts the API body to a platform guardrail. Active
// defaults to true when omitted.
func (r *SetGuardrailRequest) ToGuardrail() *policy.PlatformGuardrail {
	kinds := make([]policy.CompanyRelationshipKind, len(r.AllowedKinds))
	for i, k := range r.AllowedKinds {
		kinds[i] = policy.CompanyRelationshipKind(k)
	}

	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return &policy.PlatformGuardrail{
		Endpoint:      r.Endpoint,
		Operation:     policy.OperationType(r.Operation),
		AllowedKinds:  kinds,
		DefaultRoles:  r.DefaultRoles,
		RequiredScope: policy.DataScope(r.RequiredScope),
		Active:        active,
	}
}
