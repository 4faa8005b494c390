// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package policy

import "fmt"

// OperationType classifies the operation a request performs, ordered by
// ascending restriction level: READ, EXPORT, WRITE, APPROVE, DELETE, MANAGE.
type OperationType string

const (
	OpRead    OperationType = "READ"
	OpExport  OperationType = "EXPORT"
	OpWrite   OperationType = "WRITE"
	OpApprove OperationType = "APPROVE"
	OpDelete  OperationType = "DELETE"
	OpManage  OperationType = "MANAGE"
)

// operationLevels orders operations by restriction level.
var operationLevels = map[OperationType]int{
	OpRead:    0,
	OpExport:  1,
	OpWrite:   2,
	OpApprove: 3,
	OpDelete:  4,
	OpManage:  5,
}

// Valid reports whether o is one of the defined operations.
func (o OperationType) Valid() bool {
	_, ok := operationLevels[o]
	return ok
}

// RestrictionLevel returns the position of o in the restriction ordering
// (0 = least restricted). Unknown operations return -1.
func (o OperationType) RestrictionLevel() int {
	if lvl, ok := operationLevels[o]; ok {
		return lvl
	}
	return -1
}

// IsReadOnly reports whether o leaves data unmodified. Only READ and
// EXPORT are read-only.
func (o OperationType) IsReadOnly() bool {
	return o == OpRead || o == OpExport
}

// IsMutating reports whether o modifies data. Mutating operations
// require a durable audit record.
func (o OperationType) IsMutating() bool {
	return o.Valid() && !o.IsReadOnly()
}

// RequiresAudit reports whether a decision on this operation must be
// durably recorded. READ is exempt to control audit volume; callers may
// still record READ decisions for sensitive endpoints.
func (o OperationType) RequiresAudit() bool {
	return o.Valid() && o != OpRead
}

// ParseOperationType converts a string to an OperationType.
func ParseOperationType(v string) (OperationType, error) {
	o := OperationType(v)
	if !o.Valid() {
		return "", fmt.Errorf("unknown operation type: %q", v)
	}
	return o, nil
}

// OperationForMethod maps an HTTP method to the operation it performs.
// Used by the edge enforcement point when a route declares no explicit
// operation.
func OperationForMethod(method string) OperationType {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return OpRead
	case "POST", "PUT", "PATCH":
		return OpWrite
	case "DELETE":
		return OpDelete
	default:
		return OpRead
	}
}
