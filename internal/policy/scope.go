// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "fmt"

// DataScope is the breadth of data an evaluation is judged against.
// Scopes form a strict hierarchy: each level includes every level below it.
type DataScope string

const (
	// ScopeSelf grants access to the caller's own records only.
	ScopeSelf DataScope = "SELF"

	// ScopeCompany grants access to all records within the caller's company.
	ScopeCompany DataScope = "COMPANY"

	// ScopeCrossCompany grants access across company boundaries. Unlike the
	// other levels it requires an active relationship between the two
	// companies involved.
	ScopeCrossCompany DataScope = "CROSS_COMPANY"

	// ScopeGlobal grants system-wide access with no tenant restriction.
	ScopeGlobal DataScope = "GLOBAL"
)

// scopeLevels orders scopes from narrowest to broadest.
var scopeLevels = map[DataScope]int{
	ScopeSelf:         0,
	ScopeCompany:      1,
	ScopeCrossCompany: 2,
	ScopeGlobal:       3,
}

// Valid reports whether s is one of the defined scopes.
func (s DataScope) Valid() bool {
	_, ok := scopeLevels[s]
	return ok
}

// Level returns the hierarchy level (0 = narrowest). Unknown scopes
// return -1 so they never include anything.
func (s DataScope) Level() int {
	if lvl, ok := scopeLevels[s]; ok {
		return lvl
	}
	return -1
}

// Includes reports whether s covers other. A scope includes itself and
// every narrower scope; GLOBAL includes all scopes.
func (s DataScope) Includes(other DataScope) bool {
	if !s.Valid() || !other.Valid() {
		return false
	}
	return s.Level() >= other.Level()
}

// RequiresRelationship reports whether evaluating this scope needs an
// explicit relationship check between the two companies involved.
func (s DataScope) RequiresRelationship() bool {
	return s == ScopeCrossCompany
}

// ParseDataScope converts a string to a DataScope.
func ParseDataScope(v string) (DataScope, error) {
	s := DataScope(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown data scope: %q", v)
	}
	return s, nil
}
