// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package enforce

import (
	"context"
	"fmt"
	"time"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
)

// AccessDeniedError carries the machine-readable denial reason to
// business code that called the guard.
type AccessDeniedError struct {
	UserID    string
	Endpoint  string
	Operation policy.OperationType
	Reason    string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: user=%s endpoint=%s operation=%s reason=%s",
		e.UserID, e.Endpoint, e.Operation, e.Reason)
}

// ServiceGuard is the in-process enforcement point. Business services
// call it at method boundaries the HTTP edge cannot see, such as
// internal workflows and batch jobs. Unlike the edge middleware it
// evaluates an explicit operation rather than inferring one from an
// HTTP method.
type ServiceGuard struct {
	engine Evaluator
}

// NewServiceGuard creates a guard over the given engine.
func NewServiceGuard(engine Evaluator) *ServiceGuard {
	return &ServiceGuard{engine: engine}
}

// Require evaluates the operation for the principal in ctx and returns
// an AccessDeniedError when it is not allowed. A missing principal is
// denied, never passed through.
func (g *ServiceGuard) Require(ctx context.Context, endpoint string, op policy.OperationType) error {
	principal := PrincipalFromContext(ctx)
	if principal == nil {
		metrics.EnforcementRejections.WithLabelValues("guard", "missing_principal").Inc()
		return &AccessDeniedError{
			Endpoint:  endpoint,
			Operation: op,
			Reason:    "missing_principal",
		}
	}

	pctx := &policy.PolicyContext{
		UserID:       principal.UserID,
		CompanyID:    principal.CompanyID,
		Roles:        principal.Roles,
		Relationship: principal.Relationship,

		Endpoint:  endpoint,
		Operation: op,

		CorrelationID: logging.CorrelationIDFromContext(ctx),
		RequestID:     logging.RequestIDFromContext(ctx),
		Timestamp:     time.Now(),

		Internal: principal.Internal,
	}

	decision := g.engine.Evaluate(ctx, pctx)
	if decision == nil {
		metrics.EnforcementRejections.WithLabelValues("guard", "evaluation_error").Inc()
		return &AccessDeniedError{
			UserID:    principal.UserID,
			Endpoint:  endpoint,
			Operation: op,
			Reason:    "evaluation_error",
		}
	}
	if !decision.Allowed {
		metrics.EnforcementRejections.WithLabelValues("guard", decision.Reason).Inc()
		logging.Ctx(ctx).Warn().
			Str("user_id", principal.UserID).
			Str("endpoint", endpoint).
			Str("operation", string(op)).
			Str("reason", decision.Reason).
			Msg("Operation denied by policy guard")
		return &AccessDeniedError{
			UserID:    principal.UserID,
			Endpoint:  endpoint,
			Operation: op,
			Reason:    decision.Reason,
		}
	}
	return nil
}

// Allowed is a convenience wrapper returning a bool instead of an error.
func (g *ServiceGuard) Allowed(ctx context.Context, endpoint string, op policy.OperationType) bool {
	return g.Require(ctx, endpoint, op) == nil
}
