// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package enforce

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HeaderInternalAPIKey carries the trusted service-to-service key.
const HeaderInternalAPIKey = "X-Internal-API-Key"

// InternalKeyVerifier checks the internal API key against a bcrypt
// hash so the plaintext key never sits in process memory longer than
// one comparison.
type InternalKeyVerifier struct {
	hash []byte
}

// NewInternalKeyVerifier hashes the configured key at startup.
// An empty key disables the internal bypass entirely.
func NewInternalKeyVerifier(key string) (*InternalKeyVerifier, error) {
	if key == "" {
		return &InternalKeyVerifier{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash internal API key: %w", err)
	}
	return &InternalKeyVerifier{hash: hash}, nil
}

// Verify reports whether the presented key matches. bcrypt comparison
// is timing-safe.
func (v *InternalKeyVerifier) Verify(presented string) bool {
	if len(v.hash) == 0 || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(presented)) == nil
}

// Enabled reports whether an internal key is configured.
func (v *InternalKeyVerifier) Enabled() bool {
	return len(v.hash) > 0
}
