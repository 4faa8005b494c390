// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package registry

import (
	"context"
	"sync"
	"time"

	"github.com/fabricmesh/policygate/internal/policy"
)

// MemoryGuardrailStore implements GuardrailStore in memory. Suitable
// for development and testing; data is lost on restart.
type MemoryGuardrailStore struct {
	mu         sync.RWMutex
	guardrails map[string]*policy.PlatformGuardrail // "{endpoint}|{operation}"
}

// NewMemoryGuardrailStore creates an empty in-memory guardrail store.
func NewMemoryGuardrailStore() *MemoryGuardrailStore {
	return &MemoryGuardrailStore{
		guardrails: make(map[string]*policy.PlatformGuardrail),
	}
}

func guardrailKey(endpoint string, op policy.OperationType) string {
	return endpoint + "|" + string(op)
}

// FindGuardrail returns the active guardrail for endpoint+operation, or
// (nil, nil) when absent or inactive.
func (s *MemoryGuardrailStore) FindGuardrail(_ context.Context, endpoint string, op policy.OperationType) (*policy.PlatformGuardrail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.guardrails[guardrailKey(endpoint, op)]
	if !ok || !g.Active {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

// SaveGuardrail creates or replaces a guardrail.
func (s *MemoryGuardrailStore) SaveGuardrail(_ context.Context, g *policy.PlatformGuardrail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *g
	s.guardrails[guardrailKey(g.Endpoint, g.Operation)] = &cp
	return nil
}

// MemoryGrantStore implements GrantStore in memory.
type MemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[string]*policy.PermissionGrant // by ID
}

// NewMemoryGrantStore creates an empty in-memory grant store.
func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{
		grants: make(map[string]*policy.PermissionGrant),
	}
}

// FindEffectiveGrants returns grants matching the request triple that
// are effective at the current instant.
func (s *MemoryGrantStore) FindEffectiveGrants(_ context.Context, userID, endpoint string, op policy.OperationType) ([]policy.PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []policy.PermissionGrant
	for _, g := range s.grants {
		if g.Matches(userID, endpoint, op) && g.IsEffective(now) {
			out = append(out, *g)
		}
	}
	return out, nil
}

// SaveGrant persists a new grant.
func (s *MemoryGrantStore) SaveGrant(_ context.Context, g *policy.PermissionGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *g
	s.grants[g.ID] = &cp
	return nil
}

// GetGrant returns a grant by ID.
func (s *MemoryGrantStore) GetGrant(_ context.Context, id string) (*policy.PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.grants[id]
	if !ok {
		return nil, ErrGrantNotFound
	}
	cp := *g
	return &cp, nil
}

// UpdateGrantStatus transitions a grant's status.
func (s *MemoryGrantStore) UpdateGrantStatus(_ context.Context, id string, status policy.GrantStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[id]
	if !ok {
		return ErrGrantNotFound
	}
	g.Status = status
	return nil
}

// ListGrantsForUser returns all grants for a user regardless of status.
func (s *MemoryGrantStore) ListGrantsForUser(_ context.Context, userID string) ([]policy.PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []policy.PermissionGrant
	for _, g := range s.grants {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	return out, nil
}

// ListExpirableGrants returns ACTIVE grants whose window has passed.
func (s *MemoryGrantStore) ListExpirableGrants(_ context.Context) ([]policy.PermissionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []policy.PermissionGrant
	for _, g := range s.grants {
		if g.Status == policy.GrantActive && g.ValidUntil != nil && now.After(*g.ValidUntil) {
			out = append(out, *g)
		}
	}
	return out, nil
}
