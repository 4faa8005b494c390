// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/policy"
)

// TopicPolicyAudit is the subject decision events are published on.
const TopicPolicyAudit = "policy.audit"

// EventTypePolicyAudit identifies the envelope schema for consumers.
const EventTypePolicyAudit = "PolicyAuditEvent"

// PolicyAuditEvent is the wire envelope for one recorded decision.
// Consumers key on EventType and SchemaVersion; the remaining fields
// mirror the durable audit row so stream consumers never need access
// to the decision database.
type PolicyAuditEvent struct {
	EventType     string    `json:"event_type"`
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	EvaluatedAt  time.Time                      `json:"evaluated_at"`
	UserID       string                         `json:"user_id"`
	CompanyID    string                         `json:"company_id,omitempty"`
	Roles        []string                       `json:"roles,omitempty"`
	Relationship policy.CompanyRelationshipKind `json:"company_relationship,omitempty"`

	Endpoint  string               `json:"endpoint"`
	Operation policy.OperationType `json:"operation"`
	Scope     policy.DataScope     `json:"scope,omitempty"`

	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	PolicyName string `json:"policy_name"`
	Version    string `json:"policy_version"`

	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"evaluation_duration_ms"`

	CorrelationID string `json:"correlation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	RequestIP     string `json:"request_ip,omitempty"`
}

// NewPolicyAuditEvent wraps a decision record in the wire envelope.
func NewPolicyAuditEvent(rec *audit.DecisionRecord) *PolicyAuditEvent {
	return &PolicyAuditEvent{
		EventType:     EventTypePolicyAudit,
		SchemaVersion: 1,
		EventID:       rec.ID,
		EmittedAt:     time.Now().UTC(),

		EvaluatedAt:  rec.EvaluatedAt,
		UserID:       rec.UserID,
		CompanyID:    rec.CompanyID,
		Roles:        rec.Roles,
		Relationship: rec.Relationship,

		Endpoint:  rec.Endpoint,
		Operation: rec.Operation,
		Scope:     rec.Scope,

		Allowed:    rec.Allowed,
		Reason:     rec.Reason,
		PolicyName: rec.PolicyName,
		Version:    rec.Version,

		CacheHit:   rec.CacheHit,
		DurationMs: rec.DurationMs,

		CorrelationID: rec.CorrelationID,
		RequestID:     rec.RequestID,
		RequestIP:     rec.RequestIP,
	}
}

// Validate checks the fields consumers depend on.
func (e *PolicyAuditEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event id required")
	}
	if e.UserID == "" {
		return fmt.Errorf("user id required")
	}
	if e.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if e.Reason == "" {
		return fmt.Errorf("reason required")
	}
	return nil
}

// Serializer handles envelope encoding for NATS messages.
type Serializer struct{}

// Marshal converts an event to JSON bytes, validating it first.
func (Serializer) Marshal(e *PolicyAuditEvent) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal converts JSON bytes back to an event.
func (Serializer) Unmarshal(data []byte) (*PolicyAuditEvent, error) {
	var e PolicyAuditEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &e, nil
}
