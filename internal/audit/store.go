// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store persists decision records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save appends one record. The write is durable before Save
	// returns for persistent implementations.
	Save(ctx context.Context, rec *DecisionRecord) error

	// Get returns a record by ID.
	Get(ctx context.Context, id string) (*DecisionRecord, error)

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes records evaluated before olderThan and reports
	// how many were removed.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	// GetStats summarizes records evaluated at or after since.
	GetStats(ctx context.Context, since time.Time) (*Stats, error)
}

// MemoryStore keeps decision records in a bounded ring. Intended for
// tests and single-node deployments where durability is not required.
type MemoryStore struct {
	mu      sync.RWMutex
	records []DecisionRecord
	maxLen  int
}

// NewMemoryStore creates a memory store holding at most maxLen records.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{maxLen: maxLen}
}

func (s *MemoryStore) Save(_ context.Context, rec *DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("decision record cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *rec)
	if len(s.records) > s.maxLen {
		s.records = s.records[len(s.records)-s.maxLen:]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			cp := s.records[i]
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("decision record not found: %s", id)
}

func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DecisionRecord
	skipped := 0
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := &s.records[i]
		if !matchesFilter(rec, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, *rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limitless := filter
	limitless.Limit = 0
	limitless.Offset = 0

	var n int64
	for i := range s.records {
		if matchesFilter(&s.records[i], &limitless) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for i := range s.records {
		if s.records[i].EvaluatedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, s.records[i])
	}
	s.records = kept
	return removed, nil
}

func (s *MemoryStore) GetStats(_ context.Context, since time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByReason: make(map[string]int64)}
	var latencySum int64
	for i := range s.records {
		rec := &s.records[i]
		if rec.EvaluatedAt.Before(since) {
			continue
		}
		stats.TotalDecisions++
		if rec.Allowed {
			stats.AllowCount++
		} else {
			stats.DenyCount++
		}
		if rec.CacheHit {
			stats.CacheHitCount++
		}
		latencySum += rec.DurationMs
		stats.ByReason[rec.Reason]++

		t := rec.EvaluatedAt
		if stats.OldestDecision == nil || t.Before(*stats.OldestDecision) {
			cp := t
			stats.OldestDecision = &cp
		}
		if stats.NewestDecision == nil || t.After(*stats.NewestDecision) {
			cp := t
			stats.NewestDecision = &cp
		}
	}
	if stats.TotalDecisions > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(stats.TotalDecisions)
	}
	return stats, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matchesFilter(rec *DecisionRecord, f *QueryFilter) bool {
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.Endpoint != "" && !strings.HasPrefix(rec.Endpoint, f.Endpoint) {
		return false
	}
	if f.Operation != "" && rec.Operation != f.Operation {
		return false
	}
	if f.Reason != "" && rec.Reason != f.Reason {
		return false
	}
	if f.DeniedOnly && rec.Allowed {
		return false
	}
	if !f.Since.IsZero() && rec.EvaluatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.EvaluatedAt.After(f.Until) {
		return false
	}
	return true
}
