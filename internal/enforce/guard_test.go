// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package enforce

import (
	"context"
	"errors"
	"testing"

	"github.com/fabricmesh/policygate/internal/policy"
)

func TestServiceGuard_MissingPrincipal(t *testing.T) {
	guard := NewServiceGuard(&stubEvaluator{allow: true})

	err := guard.Require(context.Background(), "/api/v1/users", policy.OpRead)
	if err == nil {
		t.Fatal("missing principal allowed")
	}

	var denied *AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error type = %T", err)
	}
	if denied.Reason != "missing_principal" {
		t.Errorf("reason = %q", denied.Reason)
	}
}

func TestServiceGuard_AllowAndDeny(t *testing.T) {
	principal := &Principal{
		UserID:       "u1",
		CompanyID:    "c1",
		Roles:        []string{"MANAGER"},
		Relationship: policy.RelInternal,
	}
	ctx := WithPrincipal(context.Background(), principal)

	t.Run("allowed", func(t *testing.T) {
		eval := &stubEvaluator{allow: true, reason: "role_default_allowed"}
		guard := NewServiceGuard(eval)

		if err := guard.Require(ctx, "/api/v1/orders", policy.OpApprove); err != nil {
			t.Fatalf("Require: %v", err)
		}
		if eval.lastPctx.Operation != policy.OpApprove {
			t.Errorf("operation = %q", eval.lastPctx.Operation)
		}
		if eval.lastPctx.UserID != "u1" {
			t.Errorf("user = %q", eval.lastPctx.UserID)
		}
	})

	t.Run("denied", func(t *testing.T) {
		eval := &stubEvaluator{allow: false, reason: "user_grant_explicit_deny"}
		guard := NewServiceGuard(eval)

		err := guard.Require(ctx, "/api/v1/orders", policy.OpDelete)
		var denied *AccessDeniedError
		if !errors.As(err, &denied) {
			t.Fatalf("error = %v", err)
		}
		if denied.Reason != "user_grant_explicit_deny" || denied.UserID != "u1" {
			t.Errorf("denied = %+v", denied)
		}
	})
}

func TestServiceGuard_NilDecisionFailsClosed(t *testing.T) {
	guard := NewServiceGuard(evaluatorFunc(func(context.Context, *policy.PolicyContext) *policy.PolicyDecision {
		return nil
	}))
	ctx := WithPrincipal(context.Background(), &Principal{UserID: "u1"})

	err := guard.Require(ctx, "/api/v1/orders", policy.OpRead)
	var denied *AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error = %v", err)
	}
	if denied.Reason != "evaluation_error" {
		t.Errorf("reason = %q", denied.Reason)
	}
}

func TestServiceGuard_Allowed(t *testing.T) {
	guard := NewServiceGuard(&stubEvaluator{allow: true})
	ctx := WithPrincipal(context.Background(), &Principal{UserID: "u1"})

	if !guard.Allowed(ctx, "/x", policy.OpRead) {
		t.Error("Allowed = false for allowing engine")
	}
	if guard.Allowed(context.Background(), "/x", policy.OpRead) {
		t.Error("Allowed = true without principal")
	}
}

func TestInternalKeyVerifier(t *testing.T) {
	v, err := NewInternalKeyVerifier("key-1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Enabled() {
		t.Error("Enabled = false")
	}
	if !v.Verify("key-1") {
		t.Error("correct key rejected")
	}
	if v.Verify("key-2") {
		t.Error("wrong key accepted")
	}
	if v.Verify("") {
		t.Error("empty key accepted")
	}

	disabled, err := NewInternalKeyVerifier("")
	if err != nil {
		t.Fatal(err)
	}
	if disabled.Enabled() || disabled.Verify("key-1") {
		t.Error("disabled verifier accepted a key")
	}
}
