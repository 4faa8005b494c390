// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fabricmesh/policygate/internal/policy"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestMemoryGuardrailStore_FindGuardrail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGuardrailStore()

	g := &policy.PlatformGuardrail{
		ID:           "g1",
		Endpoint:     "/api/v1/users",
		Operation:    policy.OpWrite,
		AllowedKinds: []policy.CompanyRelationshipKind{policy.RelInternal},
		Active:       true,
	}
	if err := s.SaveGuardrail(ctx, g); err != nil {
		t.Fatalf("SaveGuardrail: %v", err)
	}

	got, err := s.FindGuardrail(ctx, "/api/v1/users", policy.OpWrite)
	if err != nil {
		t.Fatalf("FindGuardrail: %v", err)
	}
	if got == nil || got.ID != "g1" {
		t.Fatalf("FindGuardrail = %+v, want g1", got)
	}

	// Different operation: absent, not an error.
	got, err = s.FindGuardrail(ctx, "/api/v1/users", policy.OpDelete)
	if err != nil {
		t.Fatalf("FindGuardrail: %v", err)
	}
	if got != nil {
		t.Errorf("FindGuardrail for missing operation = %+v, want nil", got)
	}
}

func TestMemoryGuardrailStore_InactiveIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGuardrailStore()

	g := &policy.PlatformGuardrail{
		Endpoint:  "/api/v1/x",
		Operation: policy.OpRead,
		Active:    false,
	}
	if err := s.SaveGuardrail(ctx, g); err != nil {
		t.Fatalf("SaveGuardrail: %v", err)
	}

	got, err := s.FindGuardrail(ctx, "/api/v1/x", policy.OpRead)
	if err != nil {
		t.Fatalf("FindGuardrail: %v", err)
	}
	if got != nil {
		t.Errorf("inactive guardrail returned: %+v", got)
	}
}

func TestMemoryGrantStore_FindEffectiveGrants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGrantStore()
	now := time.Now()

	grants := []policy.PermissionGrant{
		{ID: "effective", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Type: policy.PermissionAllow, Status: policy.GrantActive},
		{ID: "expired-window", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Type: policy.PermissionAllow, Status: policy.GrantActive, ValidUntil: timePtr(now.Add(-time.Hour))},
		{ID: "revoked", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Type: policy.PermissionDeny, Status: policy.GrantRevoked},
		{ID: "other-user", UserID: "u2", Endpoint: "/x", Operation: policy.OpRead, Type: policy.PermissionAllow, Status: policy.GrantActive},
		{ID: "other-op", UserID: "u1", Endpoint: "/x", Operation: policy.OpWrite, Type: policy.PermissionAllow, Status: policy.GrantActive},
	}
	for i := range grants {
		if err := s.SaveGrant(ctx, &grants[i]); err != nil {
			t.Fatalf("SaveGrant: %v", err)
		}
	}

	got, err := s.FindEffectiveGrants(ctx, "u1", "/x", policy.OpRead)
	if err != nil {
		t.Fatalf("FindEffectiveGrants: %v", err)
	}
	if len(got) != 1 || got[0].ID != "effective" {
		t.Errorf("FindEffectiveGrants = %+v, want only 'effective'", got)
	}
}

func TestMemoryGrantStore_GetAndUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGrantStore()

	g := &policy.PermissionGrant{ID: "g1", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive}
	if err := s.SaveGrant(ctx, g); err != nil {
		t.Fatalf("SaveGrant: %v", err)
	}

	if err := s.UpdateGrantStatus(ctx, "g1", policy.GrantRevoked); err != nil {
		t.Fatalf("UpdateGrantStatus: %v", err)
	}

	got, err := s.GetGrant(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGrant: %v", err)
	}
	if got.Status != policy.GrantRevoked {
		t.Errorf("status = %s, want REVOKED", got.Status)
	}

	if _, err := s.GetGrant(ctx, "missing"); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("GetGrant(missing) error = %v, want ErrGrantNotFound", err)
	}
	if err := s.UpdateGrantStatus(ctx, "missing", policy.GrantExpired); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("UpdateGrantStatus(missing) error = %v, want ErrGrantNotFound", err)
	}
}

func TestMemoryGrantStore_ListExpirableGrants(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryGrantStore()
	now := time.Now()

	grants := []policy.PermissionGrant{
		{ID: "past", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive, ValidUntil: timePtr(now.Add(-time.Minute))},
		{ID: "future", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive, ValidUntil: timePtr(now.Add(time.Hour))},
		{ID: "unbounded", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive},
		{ID: "already-revoked", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantRevoked, ValidUntil: timePtr(now.Add(-time.Minute))},
	}
	for i := range grants {
		if err := s.SaveGrant(ctx, &grants[i]); err != nil {
			t.Fatalf("SaveGrant: %v", err)
		}
	}

	got, err := s.ListExpirableGrants(ctx)
	if err != nil {
		t.Fatalf("ListExpirableGrants: %v", err)
	}
	if len(got) != 1 || got[0].ID != "past" {
		t.Errorf("ListExpirableGrants = %+v, want only 'past'", got)
	}
}
