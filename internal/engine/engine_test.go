// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fabricmesh/policygate/internal/cache"
	"github.com/fabricmesh/policygate/internal/policy"
	"github.com/fabricmesh/policygate/internal/registry"
)

// failingGuardrailStore simulates storage being unavailable.
type failingGuardrailStore struct{}

func (failingGuardrailStore) FindGuardrail(context.Context, string, policy.OperationType) (*policy.PlatformGuardrail, error) {
	return nil, errors.New("storage unavailable")
}

func (failingGuardrailStore) SaveGuardrail(context.Context, *policy.PlatformGuardrail) error {
	return errors.New("storage unavailable")
}

type failingGrantStore struct {
	registry.GrantStore
}

func (failingGrantStore) FindEffectiveGrants(context.Context, string, string, policy.OperationType) ([]policy.PermissionGrant, error) {
	return nil, errors.New("storage unavailable")
}

// panickingGuardrailStore triggers the engine's panic recovery.
type panickingGuardrailStore struct{}

func (panickingGuardrailStore) FindGuardrail(context.Context, string, policy.OperationType) (*policy.PlatformGuardrail, error) {
	panic("boom")
}

func (panickingGuardrailStore) SaveGuardrail(context.Context, *policy.PlatformGuardrail) error {
	return nil
}

// spyRecorder captures decisions handed to the audit trail.
type spyRecorder struct {
	mu        sync.Mutex
	decisions []*policy.PolicyDecision
	err       error
}

func (r *spyRecorder) Record(_ context.Context, _ *policy.PolicyContext, d *policy.PolicyDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
	return r.err
}

func (r *spyRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.decisions)
}

type testEnv struct {
	engine     *Engine
	guardrails *registry.MemoryGuardrailStore
	grants     *registry.MemoryGrantStore
	cache      *cache.DecisionCache
	recorder   *spyRecorder
}

func newTestEnv() *testEnv {
	guardrails := registry.NewMemoryGuardrailStore()
	grants := registry.NewMemoryGrantStore()
	dc := cache.New(5 * time.Minute)
	rec := &spyRecorder{}
	return &testEnv{
		engine:     New(guardrails, grants, dc, rec),
		guardrails: guardrails,
		grants:     grants,
		cache:      dc,
		recorder:   rec,
	}
}

func baseContext() *policy.PolicyContext {
	return &policy.PolicyContext{
		UserID:        "u1",
		CompanyID:     "c1",
		Roles:         []string{RoleAdmin},
		Relationship:  policy.RelInternal,
		Endpoint:      "/api/v1/users",
		Operation:     policy.OpWrite,
		CorrelationID: "corr-1",
		Timestamp:     time.Now(),
	}
}

func TestEvaluate_InvalidContext(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name string
		ctx  *policy.PolicyContext
	}{
		{"missing user", &policy.PolicyContext{Endpoint: "/x", Operation: policy.OpRead}},
		{"missing operation", &policy.PolicyContext{UserID: "u1", Endpoint: "/x"}},
		{"missing endpoint", &policy.PolicyContext{UserID: "u1", Operation: policy.OpRead}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := env.engine.Evaluate(context.Background(), tt.ctx)
			if d.Allowed {
				t.Error("invalid context allowed")
			}
			if d.Reason != ReasonInvalidContext {
				t.Errorf("reason = %q, want %q", d.Reason, ReasonInvalidContext)
			}
		})
	}
}

func TestEvaluate_GuardrailDeniesDespiteAllowGrant(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Guardrail allows INTERNAL and CUSTOMER for WRITE on the endpoint.
	if err := env.guardrails.SaveGuardrail(ctx, &policy.PlatformGuardrail{
		Endpoint:     "/api/v1/users",
		Operation:    policy.OpWrite,
		AllowedKinds: []policy.CompanyRelationshipKind{policy.RelInternal, policy.RelCustomer},
		Active:       true,
	}); err != nil {
		t.Fatal(err)
	}

	// User-level ALLOW grant must not override the platform guardrail.
	if err := env.grants.SaveGrant(ctx, &policy.PermissionGrant{
		ID: "g1", UserID: "u1", Endpoint: "/api/v1/users",
		Operation: policy.OpWrite, Type: policy.PermissionAllow,
		Status: policy.GrantActive,
	}); err != nil {
		t.Fatal(err)
	}

	pctx := baseContext()
	pctx.Relationship = policy.RelSupplier

	d := env.engine.Evaluate(ctx, pctx)
	if d.Allowed {
		t.Fatal("guardrail-denied request allowed")
	}
	if !strings.Contains(d.Reason, "platform_policy") {
		t.Errorf("reason = %q, want platform_policy denial", d.Reason)
	}
}

func TestEvaluate_NoGuardrailDenyGrantWins(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// No guardrail exists. An unbounded ACTIVE DENY grant is conclusive
	// regardless of the caller's administrative role.
	if err := env.grants.SaveGrant(ctx, &policy.PermissionGrant{
		ID: "g1", UserID: "u1", Endpoint: "/api/v1/x",
		Operation: policy.OpRead, Type: policy.PermissionDeny,
		Status: policy.GrantActive,
	}); err != nil {
		t.Fatal(err)
	}

	pctx := baseContext()
	pctx.Endpoint = "/api/v1/x"
	pctx.Operation = policy.OpRead
	pctx.Roles = []string{RoleSuperAdmin}

	d := env.engine.Evaluate(ctx, pctx)
	if d.Allowed {
		t.Fatal("explicit DENY grant not conclusive")
	}
	if d.Reason != ReasonGrantExplicitDeny {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonGrantExplicitDeny)
	}
}

func TestEvaluate_DenyWinsAcrossGrants(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i, typ := range []policy.PermissionType{policy.PermissionAllow, policy.PermissionDeny, policy.PermissionAllow} {
		if err := env.grants.SaveGrant(ctx, &policy.PermissionGrant{
			ID: string(rune('a' + i)), UserID: "u1", Endpoint: "/api/v1/x",
			Operation: policy.OpRead, Type: typ, Status: policy.GrantActive,
		}); err != nil {
			t.Fatal(err)
		}
	}

	pctx := baseContext()
	pctx.Endpoint = "/api/v1/x"
	pctx.Operation = policy.OpRead

	d := env.engine.Evaluate(ctx, pctx)
	if d.Allowed {
		t.Error("DENY did not win across mixed grants")
	}
}

func TestEvaluate_AllowGrantOverridesRoleDenial(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// USER role has no default WRITE access; the explicit ALLOW grant
	// overrides the role restriction.
	if err := env.grants.SaveGrant(ctx, &policy.PermissionGrant{
		ID: "g1", UserID: "u1", Endpoint: "/api/v1/x",
		Operation: policy.OpWrite, Type: policy.PermissionAllow,
		Status: policy.GrantActive,
	}); err != nil {
		t.Fatal(err)
	}

	pctx := baseContext()
	pctx.Endpoint = "/api/v1/x"
	pctx.Roles = []string{RoleUser}

	d := env.engine.Evaluate(ctx, pctx)
	if !d.Allowed {
		t.Fatalf("explicit ALLOW grant ignored: %q", d.Reason)
	}
	if d.Reason != ReasonGrantExplicitAllow {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonGrantExplicitAllow)
	}
}

func TestEvaluate_ExpiredGrantIgnored(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	if err := env.grants.SaveGrant(ctx, &policy.PermissionGrant{
		ID: "g1", UserID: "u1", Endpoint: "/api/v1/x",
		Operation: policy.OpRead, Type: policy.PermissionDeny,
		Status: policy.GrantActive, ValidUntil: &past,
	}); err != nil {
		t.Fatal(err)
	}

	pctx := baseContext()
	pctx.Endpoint = "/api/v1/x"
	pctx.Operation = policy.OpRead

	d := env.engine.Evaluate(ctx, pctx)
	if !d.Allowed {
		t.Errorf("expired DENY grant still effective: %q", d.Reason)
	}
}

func TestEvaluate_RoleDefaults(t *testing.T) {
	tests := []struct {
		name    string
		roles   []string
		op      policy.OperationType
		allowed bool
	}{
		{"admin writes", []string{RoleAdmin}, policy.OpWrite, true},
		{"manager deletes", []string{RoleManager}, policy.OpDelete, true},
		{"user reads", []string{RoleUser}, policy.OpRead, true},
		{"user exports", []string{RoleUser}, policy.OpExport, true},
		{"user cannot write", []string{RoleUser}, policy.OpWrite, false},
		{"no roles denied", nil, policy.OpRead, false},
		{"unknown role denied", []string{"AUDITOR"}, policy.OpRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			pctx := baseContext()
			pctx.Roles = tt.roles
			pctx.Operation = tt.op

			d := env.engine.Evaluate(context.Background(), pctx)
			if d.Allowed != tt.allowed {
				t.Errorf("allowed = %v (reason %q), want %v", d.Allowed, d.Reason, tt.allowed)
			}
		})
	}
}

func TestEvaluate_GuardrailDefaultRoles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if err := env.guardrails.SaveGuardrail(ctx, &policy.PlatformGuardrail{
		Endpoint:     "/api/v1/approvals",
		Operation:    policy.OpApprove,
		AllowedKinds: []policy.CompanyRelationshipKind{policy.RelInternal},
		DefaultRoles: []string{RoleManager},
		Active:       true,
	}); err != nil {
		t.Fatal(err)
	}

	pctx := baseContext()
	pctx.Endpoint = "/api/v1/approvals"
	pctx.Operation = policy.OpApprove

	// ADMIN is not in the endpoint's default role list.
	pctx.Roles = []string{RoleAdmin}
	if d := env.engine.Evaluate(ctx, pctx); d.Allowed {
		t.Error("role outside guardrail default roles allowed")
	}

	env.cache.Clear()
	pctx2 := baseContext()
	pctx2.UserID = "u2"
	pctx2.Endpoint = "/api/v1/approvals"
	pctx2.Operation = policy.OpApprove
	pctx2.Roles = []string{RoleManager}
	if d := env.engine.Evaluate(ctx, pctx2); !d.Allowed {
		t.Errorf("guardrail default role denied: %q", d.Reason)
	}
}

func TestEvaluate_RelationshipBaseline(t *testing.T) {
	tests := []struct {
		name    string
		kind    policy.CompanyRelationshipKind
		op      policy.OperationType
		allowed bool
	}{
		{"customer read", policy.RelCustomer, policy.OpRead, true},
		{"customer write denied", policy.RelCustomer, policy.OpWrite, false},
		{"supplier write", policy.RelSupplier, policy.OpWrite, true},
		{"supplier delete denied", policy.RelSupplier, policy.OpDelete, false},
		{"subcontractor approve denied", policy.RelSubcontractor, policy.OpApprove, false},
		{"internal delete", policy.RelInternal, policy.OpDelete, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			pctx := baseContext()
			pctx.Relationship = tt.kind
			pctx.Operation = tt.op

			d := env.engine.Evaluate(context.Background(), pctx)
			if d.Allowed != tt.allowed {
				t.Errorf("allowed = %v (reason %q), want %v", d.Allowed, d.Reason, tt.allowed)
			}
		})
	}
}

func TestEvaluate_GuardrailLookupFailure_FailsClosed(t *testing.T) {
	env := newTestEnv()
	e := New(failingGuardrailStore{}, env.grants, env.cache, env.recorder)

	d := e.Evaluate(context.Background(), baseContext())
	if d.Allowed {
		t.Fatal("lookup failure did not fail closed")
	}
	if d.Reason != ReasonPlatformLookupFailed {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonPlatformLookupFailed)
	}
}

func TestEvaluate_GrantLookupFailure_FailsClosed(t *testing.T) {
	env := newTestEnv()
	e := New(env.guardrails, failingGrantStore{}, env.cache, env.recorder)

	d := e.Evaluate(context.Background(), baseContext())
	if d.Allowed {
		t.Fatal("grant lookup failure did not fail closed")
	}
	if d.Reason != ReasonGrantLookupFailed {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonGrantLookupFailed)
	}
}

func TestEvaluate_PanicRecovery(t *testing.T) {
	env := newTestEnv()
	e := New(panickingGuardrailStore{}, env.grants, env.cache, env.recorder)

	d := e.Evaluate(context.Background(), baseContext())
	if d == nil {
		t.Fatal("panic escaped Evaluate")
	}
	if d.Allowed {
		t.Error("panicked evaluation allowed")
	}
	if d.Reason != ReasonEvaluationErr {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonEvaluationErr)
	}
}

func TestEvaluate_CacheWriteThroughAndHit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	pctx := baseContext()

	first := env.engine.Evaluate(ctx, pctx)
	if first.CacheHit {
		t.Error("first evaluation reported cache hit")
	}

	second := env.engine.Evaluate(ctx, pctx)
	if !second.CacheHit {
		t.Error("second evaluation missed cache")
	}
	if second.Reason != first.Reason {
		t.Errorf("cached reason = %q, want %q", second.Reason, first.Reason)
	}

	// Cache hits are not re-recorded.
	if got := env.recorder.count(); got != 1 {
		t.Errorf("recorded decisions = %d, want 1", got)
	}
}

func TestEvaluate_CacheHitCarriesFreshTrace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.engine.Evaluate(ctx, baseContext())

	pctx := baseContext()
	pctx.CorrelationID = "corr-2"
	d := env.engine.Evaluate(ctx, pctx)
	if !d.CacheHit {
		t.Fatal("expected cache hit")
	}
	if d.CorrelationID != "corr-2" {
		t.Errorf("cache hit correlation id = %q, want corr-2", d.CorrelationID)
	}
}

func TestEvaluate_InternalPrincipalBypass(t *testing.T) {
	// Stores that would fail are never consulted for internal callers.
	env := newTestEnv()
	e := New(failingGuardrailStore{}, failingGrantStore{}, env.cache, env.recorder)

	pctx := baseContext()
	pctx.Internal = true

	d := e.Evaluate(context.Background(), pctx)
	if !d.Allowed {
		t.Fatalf("internal principal denied: %q", d.Reason)
	}
	if d.Reason != ReasonInternalService {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonInternalService)
	}
}

func TestEvaluate_RecorderFailureDoesNotChangeDecision(t *testing.T) {
	env := newTestEnv()
	env.recorder.err = errors.New("audit storage down")

	d := env.engine.Evaluate(context.Background(), baseContext())
	if !d.Allowed {
		t.Errorf("recorder failure changed the decision: %q", d.Reason)
	}
}

func TestEvaluate_RecordsDenials(t *testing.T) {
	env := newTestEnv()
	pctx := baseContext()
	pctx.Roles = nil

	d := env.engine.Evaluate(context.Background(), pctx)
	if d.Allowed {
		t.Fatal("expected denial")
	}
	if env.recorder.count() != 1 {
		t.Errorf("denial not recorded")
	}
}

func TestEvaluate_SetsDurationAndTimestamp(t *testing.T) {
	env := newTestEnv()
	d := env.engine.Evaluate(context.Background(), baseContext())

	if d.EvaluatedAt.IsZero() {
		t.Error("EvaluatedAt not set")
	}
	if d.EvaluationDurationMs < 0 {
		t.Errorf("negative duration: %d", d.EvaluationDurationMs)
	}
}

func TestEvaluate_ConcurrentSameKey(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := env.engine.Evaluate(ctx, baseContext())
			if d == nil || d.Reason == "" {
				t.Error("torn decision from concurrent evaluation")
			}
		}()
	}
	wg.Wait()

	key, _ := cache.BuildKey("u1", "/api/v1/users", policy.OpWrite)
	if got := env.cache.Get(key); got == nil {
		t.Error("no cached decision after concurrent evaluations")
	}
}
