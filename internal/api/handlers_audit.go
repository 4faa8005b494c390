// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fabricmesh/policygate/internal/audit"
	"github.com/fabricmesh/policygate/internal/policy"
)

const (
	maxAuditPageSize = 1000
	maxStatsWindow   = 90 * 24 * time.Hour
)

// AuditDenials handles GET /api/v1/audit/denials. It returns recent
// DENY decisions, newest first, with pagination.
func (h *Handler) AuditDenials(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, ok := auditFilterFromQuery(rw, r)
	if !ok {
		return
	}
	filter.DeniedOnly = true

	records, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.StorageError(err)
		return
	}
	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		rw.StorageError(err)
		return
	}

	rw.SuccessWithPagination(records, &PaginationMeta{
		Total:   total,
		Count:   len(records),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
		HasMore: int64(filter.Offset+len(records)) < total,
	})
}

// AuditDecisions handles GET /api/v1/audit/decisions. Same shape as
// the denials endpoint but covers all outcomes.
func (h *Handler) AuditDecisions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, ok := auditFilterFromQuery(rw, r)
	if !ok {
		return
	}

	records, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.StorageError(err)
		return
	}
	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		rw.StorageError(err)
		return
	}

	rw.SuccessWithPagination(records, &PaginationMeta{
		Total:   total,
		Count:   len(records),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
		HasMore: int64(filter.Offset+len(records)) < total,
	})
}

// AuditStats handles GET /api/v1/audit/stats. The window query
// parameter is a Go duration (default 24h).
func (h *Handler) AuditStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			rw.BadRequest("window must be a positive duration such as 24h")
			return
		}
		if parsed > maxStatsWindow {
			parsed = maxStatsWindow
		}
		window = parsed
	}

	stats, err := h.audit.Stats(r.Context(), time.Now().Add(-window))
	if err != nil {
		rw.StorageError(err)
		return
	}

	rw.Success(stats)
}

// auditFilterFromQuery builds a query filter from URL parameters.
// Returns ok=false after writing a 400 for malformed values.
func auditFilterFromQuery(rw *ResponseWriter, r *http.Request) (audit.QueryFilter, bool) {
	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()

	filter.UserID = q.Get("user_id")
	filter.Endpoint = q.Get("endpoint")
	filter.Reason = q.Get("reason")

	if raw := q.Get("operation"); raw != "" {
		op := policy.OperationType(raw)
		if !op.Valid() {
			rw.BadRequest("invalid operation: " + raw)
			return filter, false
		}
		filter.Operation = op
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			rw.BadRequest("since must be RFC3339")
			return filter, false
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			rw.BadRequest("until must be RFC3339")
			return filter, false
		}
		filter.Until = t
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rw.BadRequest("limit must be a positive integer")
			return filter, false
		}
		if n > maxAuditPageSize {
			n = maxAuditPageSize
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			rw.BadRequest("offset must be a non-negative integer")
			return filter, false
		}
		filter.Offset = n
	}

	return filter, true
}
