// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "fmt"

// CompanyRelationshipKind is the relationship a caller's company has to
// the platform operator. It bounds what operations the company may ever
// perform, regardless of user-level grants.
type CompanyRelationshipKind string

const (
	// RelInternal is the platform operator's own organization.
	RelInternal CompanyRelationshipKind = "INTERNAL"

	// RelCustomer is a customer company. Read-only.
	RelCustomer CompanyRelationshipKind = "CUSTOMER"

	// RelSupplier is a supplier company. May write, never delete.
	RelSupplier CompanyRelationshipKind = "SUPPLIER"

	// RelSubcontractor is a subcontractor company. May write, never delete.
	RelSubcontractor CompanyRelationshipKind = "SUBCONTRACTOR"
)

// Valid reports whether k is one of the defined relationship kinds.
func (k CompanyRelationshipKind) Valid() bool {
	switch k {
	case RelInternal, RelCustomer, RelSupplier, RelSubcontractor:
		return true
	}
	return false
}

// MayPerform reports whether the relationship kind permits the operation
// at all. This is the baseline matrix applied when no platform guardrail
// row exists for the endpoint:
//
//   - INTERNAL: unrestricted
//   - CUSTOMER: read-only (READ, EXPORT)
//   - SUPPLIER, SUBCONTRACTOR: read plus WRITE, never DELETE or MANAGE
//
// Only INTERNAL may delete.
func (k CompanyRelationshipKind) MayPerform(op OperationType) bool {
	if !op.Valid() {
		return false
	}
	switch k {
	case RelInternal:
		return true
	case RelCustomer:
		return op.IsReadOnly()
	case RelSupplier, RelSubcontractor:
		return op.IsReadOnly() || op == OpWrite
	default:
		return false
	}
}

// MayDelete reports whether the relationship kind permits DELETE.
func (k CompanyRelationshipKind) MayDelete() bool {
	return k == RelInternal
}

// ParseCompanyRelationshipKind converts a string to a relationship kind.
func ParseCompanyRelationshipKind(v string) (CompanyRelationshipKind, error) {
	k := CompanyRelationshipKind(v)
	if !k.Valid() {
		return "", fmt.Errorf("unknown company relationship kind: %q", v)
	}
	return k, nil
}
