// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
)

// DecisionInvalidator is the slice of the decision cache the registry
// needs: targeted eviction when policy state changes.
type DecisionInvalidator interface {
	EvictUser(userID string)
	EvictEndpoint(endpoint string)
}

// Service is the administrative write path for grants and guardrails.
// It is not on the hot evaluation path. Every mutation invalidates the
// decision cache for the affected user (grants) or endpoint
// (guardrails) so stale decisions cannot outlive a policy change.
type Service struct {
	grants      GrantStore
	guardrails  GuardrailStore
	invalidator DecisionInvalidator
}

// NewService creates the administrative registry service.
func NewService(grants GrantStore, guardrails GuardrailStore, invalidator DecisionInvalidator) *Service {
	return &Service{
		grants:      grants,
		guardrails:  guardrails,
		invalidator: invalidator,
	}
}

// GrantRequest carries the parameters of an administrative grant.
type GrantRequest struct {
	UserID     string                `json:"user_id"`
	Endpoint   string                `json:"endpoint"`
	Operation  policy.OperationType  `json:"operation"`
	Scope      policy.DataScope      `json:"scope,omitempty"`
	Type       policy.PermissionType `json:"permission_type"`
	ValidFrom  *time.Time            `json:"valid_from,omitempty"`
	ValidUntil *time.Time            `json:"valid_until,omitempty"`
	GrantedBy  string                `json:"granted_by"`
	Reason     string                `json:"reason,omitempty"`
}

// Validate checks the request fields.
func (r *GrantRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("grant request: missing user id")
	}
	if r.Endpoint == "" {
		return fmt.Errorf("grant request: missing endpoint")
	}
	if !r.Operation.Valid() {
		return fmt.Errorf("grant request: invalid operation %q", r.Operation)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("grant request: invalid permission type %q", r.Type)
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidUntil.Before(*r.ValidFrom) {
		return fmt.Errorf("grant request: valid_until before valid_from")
	}
	return nil
}

// Grant creates a new ACTIVE grant and evicts the user's cached
// decisions.
func (s *Service) Grant(ctx context.Context, req *GrantRequest) (*policy.PermissionGrant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g := &policy.PermissionGrant{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Endpoint:   req.Endpoint,
		Operation:  req.Operation,
		Scope:      req.Scope,
		Type:       req.Type,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		GrantedBy:  req.GrantedBy,
		Reason:     req.Reason,
		Status:     policy.GrantActive,
		CreatedAt:  time.Now(),
	}

	if err := s.grants.SaveGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("save grant: %w", err)
	}

	s.invalidator.EvictUser(g.UserID)
	metrics.DecisionCacheEvictions.WithLabelValues("user").Inc()

	logging.Ctx(ctx).Info().
		Str("grant_id", g.ID).
		Str("user_id", g.UserID).
		Str("endpoint", g.Endpoint).
		Str("operation", string(g.Operation)).
		Str("type", string(g.Type)).
		Str("granted_by", g.GrantedBy).
		Msg("Permission grant created")

	return g, nil
}

// Revoke transitions a grant to REVOKED and evicts the user's cached
// decisions.
func (s *Service) Revoke(ctx context.Context, grantID string) error {
	g, err := s.grants.GetGrant(ctx, grantID)
	if err != nil {
		return err
	}

	if err := s.grants.UpdateGrantStatus(ctx, grantID, policy.GrantRevoked); err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}

	s.invalidator.EvictUser(g.UserID)
	metrics.DecisionCacheEvictions.WithLabelValues("user").Inc()

	logging.Ctx(ctx).Info().
		Str("grant_id", grantID).
		Str("user_id", g.UserID).
		Msg("Permission grant revoked")

	return nil
}

// ListGrants returns all grants for a user.
func (s *Service) ListGrants(ctx context.Context, userID string) ([]policy.PermissionGrant, error) {
	return s.grants.ListGrantsForUser(ctx, userID)
}

// MarkExpired sweeps ACTIVE grants whose validity window has passed and
// marks them EXPIRED for bookkeeping. Lazy effectiveness checks remain
// authoritative, so the sweep only tidies state; it returns how many
// grants it transitioned.
func (s *Service) MarkExpired(ctx context.Context) (int, error) {
	expirable, err := s.grants.ListExpirableGrants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expirable grants: %w", err)
	}

	marked := 0
	for i := range expirable {
		g := &expirable[i]
		if err := s.grants.UpdateGrantStatus(ctx, g.ID, policy.GrantExpired); err != nil {
			logging.Error().Err(err).Str("grant_id", g.ID).Msg("Failed to mark grant expired")
			continue
		}
		s.invalidator.EvictUser(g.UserID)
		marked++
	}

	if marked > 0 {
		logging.Info().Int("marked", marked).Msg("Expired grants swept")
	}
	return marked, nil
}

// SetGuardrail creates or replaces a platform guardrail and evicts all
// cached decisions for the affected endpoint.
func (s *Service) SetGuardrail(ctx context.Context, g *policy.PlatformGuardrail) error {
	if g.Endpoint == "" {
		return fmt.Errorf("guardrail: missing endpoint")
	}
	if !g.Operation.Valid() {
		return fmt.Errorf("guardrail: invalid operation %q", g.Operation)
	}
	if g.ID == "" {
		g.ID = uuid.New().String()
	}

	if err := s.guardrails.SaveGuardrail(ctx, g); err != nil {
		return fmt.Errorf("save guardrail: %w", err)
	}

	s.invalidator.EvictEndpoint(g.Endpoint)
	metrics.DecisionCacheEvictions.WithLabelValues("endpoint").Inc()

	logging.Ctx(ctx).Info().
		Str("endpoint", g.Endpoint).
		Str("operation", string(g.Operation)).
		Bool("active", g.Active).
		Msg("Platform guardrail updated")

	return nil
}

// RunExpirySweeper periodically runs MarkExpired until ctx is
// cancelled. Interval defaults to one hour if non-positive.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.MarkExpired(ctx); err != nil {
				logging.Error().Err(err).Msg("Grant expiry sweep failed")
			}
		}
	}
}
