// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package enforce

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fabricmesh/policygate/internal/policy"
)

// Principal is the authenticated caller identity an enforcement point
// hands to the policy engine.
type Principal struct {
	UserID       string
	CompanyID    string
	Roles        []string
	Relationship policy.CompanyRelationshipKind

	// Internal marks trusted service principals established via the
	// internal API key, not via end-user credentials.
	Internal bool
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal, or nil when the request
// was never authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Claims is the JWT payload issued by the platform identity service.
type Claims struct {
	UserID      string   `json:"user_id"`
	CompanyID   string   `json:"company_id"`
	Roles       []string `json:"roles"`
	CompanyType string   `json:"company_type"`
	jwt.RegisteredClaims
}

// TokenVerifier validates bearer tokens and extracts principals.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for HS256-signed platform tokens.
func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{
		secret: secret,
		leeway: 30 * time.Second,
	}
}

// Verify validates the token signature and registered claims, then
// maps the payload to a Principal. The signing algorithm is pinned to
// HMAC to prevent algorithm confusion.
func (v *TokenVerifier) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user id")
	}

	return &Principal{
		UserID:       claims.UserID,
		CompanyID:    claims.CompanyID,
		Roles:        claims.Roles,
		Relationship: policy.CompanyRelationshipKind(strings.ToUpper(claims.CompanyType)),
	}, nil
}

// BearerToken extracts the token from an Authorization header.
// Returns "" when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
