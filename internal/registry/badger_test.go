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

	"github.com/dgraph-io/badger/v4"

	"github.com/fabricmesh/policygate/internal/policy"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBadgerGuardrailStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerGuardrailStore(openTestDB(t))

	g := &policy.PlatformGuardrail{
		ID:           "g1",
		Endpoint:     "/api/v1/users",
		Operation:    policy.OpWrite,
		AllowedKinds: []policy.CompanyRelationshipKind{policy.RelInternal, policy.RelCustomer},
		Active:       true,
	}
	if err := s.SaveGuardrail(ctx, g); err != nil {
		t.Fatalf("SaveGuardrail: %v", err)
	}

	got, err := s.FindGuardrail(ctx, "/api/v1/users", policy.OpWrite)
	if err != nil {
		t.Fatalf("FindGuardrail: %v", err)
	}
	if got == nil {
		t.Fatal("FindGuardrail returned nil for saved guardrail")
	}
	if len(got.AllowedKinds) != 2 || !got.AllowsKind(policy.RelCustomer) {
		t.Errorf("allowed kinds not round-tripped: %+v", got.AllowedKinds)
	}

	got, err = s.FindGuardrail(ctx, "/api/v1/missing", policy.OpWrite)
	if err != nil {
		t.Fatalf("FindGuardrail: %v", err)
	}
	if got != nil {
		t.Errorf("FindGuardrail for missing endpoint = %+v, want nil", got)
	}
}

func TestBadgerGrantStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerGrantStore(openTestDB(t))

	g := &policy.PermissionGrant{
		ID:        "g1",
		UserID:    "u1",
		Endpoint:  "/api/v1/x",
		Operation: policy.OpRead,
		Type:      policy.PermissionDeny,
		Status:    policy.GrantActive,
		CreatedAt: time.Now(),
	}
	if err := s.SaveGrant(ctx, g); err != nil {
		t.Fatalf("SaveGrant: %v", err)
	}

	got, err := s.GetGrant(ctx, "g1")
	if err != nil {
		t.Fatalf("GetGrant: %v", err)
	}
	if got.Type != policy.PermissionDeny || got.UserID != "u1" {
		t.Errorf("grant not round-tripped: %+v", got)
	}

	effective, err := s.FindEffectiveGrants(ctx, "u1", "/api/v1/x", policy.OpRead)
	if err != nil {
		t.Fatalf("FindEffectiveGrants: %v", err)
	}
	if len(effective) != 1 {
		t.Errorf("FindEffectiveGrants returned %d grants, want 1", len(effective))
	}

	if _, err := s.GetGrant(ctx, "missing"); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("GetGrant(missing) error = %v, want ErrGrantNotFound", err)
	}
}

func TestBadgerGrantStore_StatusTransition(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerGrantStore(openTestDB(t))

	g := &policy.PermissionGrant{
		ID: "g1", UserID: "u1", Endpoint: "/x",
		Operation: policy.OpWrite, Type: policy.PermissionAllow,
		Status: policy.GrantActive,
	}
	if err := s.SaveGrant(ctx, g); err != nil {
		t.Fatalf("SaveGrant: %v", err)
	}

	if err := s.UpdateGrantStatus(ctx, "g1", policy.GrantRevoked); err != nil {
		t.Fatalf("UpdateGrantStatus: %v", err)
	}

	effective, err := s.FindEffectiveGrants(ctx, "u1", "/x", policy.OpWrite)
	if err != nil {
		t.Fatalf("FindEffectiveGrants: %v", err)
	}
	if len(effective) != 0 {
		t.Errorf("revoked grant still effective: %+v", effective)
	}
}

func TestBadgerGrantStore_ListExpirable(t *testing.T) {
	ctx := context.Background()
	s := NewBadgerGrantStore(openTestDB(t))
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	grants := []policy.PermissionGrant{
		{ID: "a", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive, ValidUntil: &past},
		{ID: "b", UserID: "u1", Endpoint: "/x", Operation: policy.OpRead, Status: policy.GrantActive, ValidUntil: &future},
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
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("ListExpirableGrants = %+v, want only 'a'", got)
	}
}
