// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fabricmesh/policygate/internal/policy"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*DecisionRecord
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, rec *DecisionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, rec)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type failingStore struct {
	Store
}

func (failingStore) Save(context.Context, *DecisionRecord) error {
	return errors.New("disk full")
}

func decisionPair() (*policy.PolicyContext, *policy.PolicyDecision) {
	pctx := &policy.PolicyContext{
		UserID:        "u1",
		CompanyID:     "c1",
		Roles:         []string{"ADMIN"},
		Relationship:  policy.RelInternal,
		Endpoint:      "/api/v1/users",
		Operation:     policy.OpWrite,
		CorrelationID: "corr-1",
	}
	return pctx, policy.Allow(pctx, "role_default_allowed", "role_default", "v2")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestService_RecordPersistsAndPublishes(t *testing.T) {
	store := NewMemoryStore(100)
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil)
	defer svc.Close()

	pctx, d := decisionPair()
	if err := svc.Record(context.Background(), pctx, d); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
	waitFor(t, func() bool { return pub.count() == 1 })
}

func TestService_StoreFailureSurfaced(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(failingStore{}, pub, nil)
	defer svc.Close()

	pctx, d := decisionPair()
	if err := svc.Record(context.Background(), pctx, d); err == nil {
		t.Fatal("durable write failure not surfaced")
	}
}

func TestService_PublishFailureDoesNotFailRecord(t *testing.T) {
	store := NewMemoryStore(100)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(store, pub, nil)

	pctx, d := decisionPair()
	if err := svc.Record(context.Background(), pctx, d); err != nil {
		t.Fatalf("Record surfaced publish failure: %v", err)
	}
	svc.Close()

	// The row persisted even though every publish attempt failed.
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
	if pub.count() != 0 {
		t.Errorf("published = %d, want 0", pub.count())
	}
}

func TestService_NilPublisher(t *testing.T) {
	store := NewMemoryStore(100)
	svc := NewService(store, nil, nil)
	defer svc.Close()

	pctx, d := decisionPair()
	if err := svc.Record(context.Background(), pctx, d); err != nil {
		t.Fatalf("Record without publisher: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1", store.Len())
	}
}

func TestService_RecordNilDecision(t *testing.T) {
	svc := NewService(NewMemoryStore(10), nil, nil)
	defer svc.Close()

	if err := svc.Record(context.Background(), nil, nil); err == nil {
		t.Error("Record(nil) returned no error")
	}
}

func TestService_CloseDrainsQueue(t *testing.T) {
	store := NewMemoryStore(100)
	pub := &recordingPublisher{}
	svc := NewService(store, pub, &Config{QueueSize: 64})

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		pctx, d := decisionPair()
		if err := svc.Record(ctx, pctx, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	if pub.count() != 20 {
		t.Errorf("published = %d, want 20", pub.count())
	}
}

func TestService_QueryAndStatsPassthrough(t *testing.T) {
	store := NewMemoryStore(100)
	svc := NewService(store, nil, nil)
	defer svc.Close()

	ctx := context.Background()
	pctx, d := decisionPair()
	if err := svc.Record(ctx, pctx, d); err != nil {
		t.Fatal(err)
	}

	records, err := svc.Query(ctx, QueryFilter{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].CorrelationID != "corr-1" {
		t.Errorf("correlation id = %q", records[0].CorrelationID)
	}

	n, err := svc.Count(ctx, QueryFilter{DeniedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("denied count = %d, want 0", n)
	}

	stats, err := svc.Stats(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDecisions != 1 || stats.AllowCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestService_CloseIdempotent(t *testing.T) {
	svc := NewService(NewMemoryStore(10), &recordingPublisher{}, nil)
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
}
