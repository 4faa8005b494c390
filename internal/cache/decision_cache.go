// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
)

// KeySeparator joins the key components. It appears verbatim in audit
// logs as a correlation aid.
const KeySeparator = "::"

// DefaultTTL is how long a cached decision stays servable.
const DefaultTTL = 5 * time.Minute

// BuildKey constructs the cache key "{userId}::{endpoint}::{operation}".
// It returns ok=false if any component is empty; such requests are never
// cached.
func BuildKey(userID, endpoint string, op policy.OperationType) (string, bool) {
	if userID == "" || endpoint == "" || op == "" {
		return "", false
	}
	return userID + KeySeparator + endpoint + KeySeparator + string(op), true
}

// DecisionCache is a concurrency-safe map from decision key to the last
// decision evaluated for it. Reads are lock-free (sync.Map); Put and the
// Evict operations are independent best-effort writes. A racing Put and
// EvictUser resolve in favor of eviction: once EvictUser returns, a
// subsequent Get never serves a decision older than the eviction unless
// a later Put stored a fresh one.
type DecisionCache struct {
	ttl     time.Duration
	entries sync.Map // string -> *policy.PolicyDecision
}

// New creates a decision cache with the given TTL. Non-positive TTLs
// fall back to DefaultTTL.
func New(ttl time.Duration) *DecisionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DecisionCache{ttl: ttl}
}

// TTL returns the configured time-to-live.
func (c *DecisionCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached decision for key, or nil if absent or expired.
// Expired entries are removed on read; there is no background sweep.
func (c *DecisionCache) Get(key string) *policy.PolicyDecision {
	if key == "" {
		return nil
	}
	v, ok := c.entries.Load(key)
	if !ok {
		metrics.DecisionCacheMisses.Inc()
		return nil
	}
	d := v.(*policy.PolicyDecision)
	if d.IsExpired(c.ttl) {
		c.entries.Delete(key)
		metrics.DecisionCacheMisses.Inc()
		return nil
	}
	metrics.DecisionCacheHits.Inc()
	return d
}

// Put stores a decision under key. Empty keys and nil decisions are
// silently dropped; the cache never stores them.
func (c *DecisionCache) Put(key string, d *policy.PolicyDecision) {
	if key == "" || d == nil {
		return
	}
	c.entries.Store(key, d)
}

// Evict removes a single entry.
func (c *DecisionCache) Evict(key string) {
	if key == "" {
		return
	}
	c.entries.Delete(key)
}

// EvictUser removes every entry whose key's user component matches
// userID.
func (c *DecisionCache) EvictUser(userID string) {
	if userID == "" {
		return
	}
	prefix := userID + KeySeparator
	evicted := 0
	c.entries.Range(func(k, _ any) bool {
		if strings.HasPrefix(k.(string), prefix) {
			c.entries.Delete(k)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		logging.Debug().Str("user_id", userID).Int("evicted", evicted).Msg("Decision cache user eviction")
	}
}

// EvictEndpoint removes every entry whose key's endpoint component
// matches endpoint, regardless of user.
func (c *DecisionCache) EvictEndpoint(endpoint string) {
	if endpoint == "" {
		return
	}
	segment := KeySeparator + endpoint + KeySeparator
	evicted := 0
	c.entries.Range(func(k, _ any) bool {
		if strings.Contains(k.(string), segment) {
			c.entries.Delete(k)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		logging.Debug().Str("endpoint", endpoint).Int("evicted", evicted).Msg("Decision cache endpoint eviction")
	}
}

// Clear removes all entries.
func (c *DecisionCache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}

// Stats describes the cache for the observability surface.
type Stats struct {
	Size       int     `json:"size"`
	TTLMinutes float64 `json:"ttl_minutes"`
	Type       string  `json:"type"`
}

// Stats returns current cache statistics. Size counts entries including
// ones that have expired but not yet been lazily removed.
func (c *DecisionCache) Stats() Stats {
	size := 0
	c.entries.Range(func(_, _ any) bool {
		size++
		return true
	})
	return Stats{
		Size:       size,
		TTLMinutes: c.ttl.Minutes(),
		Type:       "in-memory",
	}
}
