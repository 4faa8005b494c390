// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/registry"
	"github.com/fabricmesh/policygate/internal/validation"
)

// maxRequestBody bounds admin request bodies at 64 KiB.
const maxRequestBody = 64 << 10

// CreateGrant handles POST /api/v1/grants.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateGrantRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	grant, err := h.registry.Grant(r.Context(), req.ToGrantRequest())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("user_id", req.UserID).
			Str("endpoint", req.Endpoint).
			Msg("Grant creation rejected")
		rw.BadRequest(err.Error())
		return
	}

	rw.Created(grant)
}

// RevokeGrant handles DELETE /api/v1/grants/{id}.
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	grantID := chi.URLParam(r, "id")
	if grantID == "" {
		rw.BadRequest("grant id is required")
		return
	}

	if err := h.registry.Revoke(r.Context(), grantID); err != nil {
		if errors.Is(err, registry.ErrGrantNotFound) {
			rw.NotFound("grant not found")
			return
		}
		rw.StorageError(err)
		return
	}

	rw.NoContent()
}

// ListUserGrants handles GET /api/v1/users/{userID}/grants.
func (h *Handler) ListUserGrants(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		rw.BadRequest("user id is required")
		return
	}

	grants, err := h.registry.ListGrants(r.Context(), userID)
	if err != nil {
		rw.StorageError(err)
		return
	}

	rw.SuccessWithPagination(grants, &PaginationMeta{
		Total: int64(len(grants)),
		Count: len(grants),
	})
}

// SetGuardrail handles PUT /api/v1/guardrails.
func (h *Handler) SetGuardrail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SetGuardrailRequest
	if !decodeBody(rw, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	guardrail := req.ToGuardrail()
	if err := h.registry.SetGuardrail(r.Context(), guardrail); err != nil {
		rw.StorageError(err)
		return
	}

	rw.Success(guardrail)
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
// Unknown fields are rejected so typos in admin tooling surface early.
func decodeBody(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(rw.w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return false
	}
	return true
}
