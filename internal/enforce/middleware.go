// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package enforce

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
)

// Evaluator is the engine surface enforcement points depend on.
type Evaluator interface {
	Evaluate(ctx context.Context, pctx *policy.PolicyContext) *policy.PolicyDecision
}

// Middleware is the HTTP edge enforcement point. It authenticates the
// request, builds the policy context, and rejects anything the engine
// denies before a handler runs.
type Middleware struct {
	engine      Evaluator
	tokens      *TokenVerifier
	internalKey *InternalKeyVerifier

	// publicPrefixes skip enforcement entirely (health, metrics,
	// auth bootstrap).
	publicPrefixes []string
}

// NewMiddleware creates the edge enforcement middleware.
func NewMiddleware(engine Evaluator, tokens *TokenVerifier, internalKey *InternalKeyVerifier, publicPrefixes []string) *Middleware {
	return &Middleware{
		engine:         engine,
		tokens:         tokens,
		internalKey:    internalKey,
		publicPrefixes: publicPrefixes,
	}
}

// Enforce is the chi middleware. Every non-public request must carry
// either a valid bearer token or the internal API key; anything else
// is denied without consulting the engine.
func (m *Middleware) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		principal, status, reason := m.authenticate(r)
		if principal == nil {
			metrics.EnforcementRejections.WithLabelValues("edge", reason).Inc()
			writeDenied(w, status, reason, "")
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		pctx := ContextFromRequest(r, principal)

		decision := m.engine.Evaluate(ctx, pctx)
		if decision == nil || !decision.Allowed {
			reason := "evaluation_error"
			correlationID := pctx.CorrelationID
			if decision != nil {
				reason = decision.Reason
				correlationID = decision.CorrelationID
			}
			metrics.EnforcementRejections.WithLabelValues("edge", reason).Inc()
			logging.Ctx(ctx).Warn().
				Str("user_id", principal.UserID).
				Str("endpoint", pctx.Endpoint).
				Str("operation", string(pctx.Operation)).
				Str("reason", reason).
				Msg("Request denied by policy")
			writeDenied(w, http.StatusForbidden, reason, correlationID)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate resolves the caller to a principal. Returns nil plus an
// HTTP status and reason when the request cannot be authenticated.
func (m *Middleware) authenticate(r *http.Request) (*Principal, int, string) {
	if key := r.Header.Get(HeaderInternalAPIKey); key != "" {
		if m.internalKey != nil && m.internalKey.Verify(key) {
			return &Principal{
				UserID:       "internal-service",
				Relationship: policy.RelInternal,
				Internal:     true,
			}, 0, ""
		}
		// A wrong key is never downgraded to user auth.
		return nil, http.StatusUnauthorized, "invalid_internal_key"
	}

	token := BearerToken(r)
	if token == "" {
		return nil, http.StatusUnauthorized, "missing_principal"
	}
	if m.tokens == nil {
		return nil, http.StatusUnauthorized, "token_verification_unavailable"
	}
	principal, err := m.tokens.Verify(token)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Bearer token rejected")
		return nil, http.StatusUnauthorized, "invalid_token"
	}
	return principal, 0, ""
}

func (m *Middleware) isPublic(path string) bool {
	for _, prefix := range m.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ContextFromRequest builds the engine's evaluation context from an
// HTTP request and its authenticated principal.
func ContextFromRequest(r *http.Request, p *Principal) *policy.PolicyContext {
	ctx := r.Context()

	correlationID := r.Header.Get("X-Correlation-ID")
	if correlationID == "" {
		correlationID = logging.CorrelationIDFromContext(ctx)
	}
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = r.Header.Get("X-Request-ID")
	}

	return &policy.PolicyContext{
		UserID:       p.UserID,
		CompanyID:    p.CompanyID,
		Roles:        p.Roles,
		Relationship: p.Relationship,

		Endpoint:  r.URL.Path,
		Operation: policy.OperationForMethod(r.Method),
		Scope:     policy.DataScope(strings.ToUpper(r.Header.Get("X-Data-Scope"))),

		CorrelationID: correlationID,
		RequestID:     requestID,
		RequestIP:     clientIP(r),
		Timestamp:     time.Now(),

		Internal: p.Internal,
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type deniedResponse struct {
	Error         string `json:"error"`
	Reason        string `json:"reason"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeDenied(w http.ResponseWriter, status int, reason, correlationID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := deniedResponse{
		Error:         http.StatusText(status),
		Reason:        reason,
		CorrelationID: correlationID,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn().Err(err).Msg("Failed to write denial response")
	}
}
