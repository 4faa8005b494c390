// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fabricmesh/policygate/internal/logging"
)

func TestRequestID_GeneratesIDs(t *testing.T) {
	var gotRequestID, gotCorrelationID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = logging.RequestIDFromContext(r.Context())
		gotCorrelationID = logging.CorrelationIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if gotRequestID == "" || gotCorrelationID == "" {
		t.Errorf("ids not populated: request=%q correlation=%q", gotRequestID, gotCorrelationID)
	}
	if rec.Header().Get("X-Request-ID") != gotRequestID {
		t.Error("response header does not echo request id")
	}
	if rec.Header().Get("X-Correlation-ID") != gotCorrelationID {
		t.Error("response header does not echo correlation id")
	}
}

func TestRequestID_HonorsUpstreamIDs(t *testing.T) {
	var gotRequestID, gotCorrelationID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = logging.RequestIDFromContext(r.Context())
		gotCorrelationID = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-7")
	req.Header.Set("X-Correlation-ID", "corr-7")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotRequestID != "req-7" {
		t.Errorf("request id = %q, want req-7", gotRequestID)
	}
	if gotCorrelationID != "corr-7" {
		t.Errorf("correlation id = %q, want corr-7", gotCorrelationID)
	}
}

func TestPrometheusMetrics_PassesThrough(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
