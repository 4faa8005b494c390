// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/fabricmesh/policygate/internal/policy"
)

// Key prefixes for BadgerDB storage.
const (
	guardrailKeyPrefix = "guardrail:"
	grantKeyPrefix     = "grant:"
	grantUserKeyPrefix = "grant_user:"
)

// BadgerGuardrailStore implements GuardrailStore on BadgerDB for
// durable storage across restarts.
type BadgerGuardrailStore struct {
	db *badger.DB
}

// NewBadgerGuardrailStore creates a BadgerDB-backed guardrail store.
func NewBadgerGuardrailStore(db *badger.DB) *BadgerGuardrailStore {
	return &BadgerGuardrailStore{db: db}
}

// FindGuardrail returns the active guardrail for endpoint+operation, or
// (nil, nil) when absent or inactive.
func (s *BadgerGuardrailStore) FindGuardrail(_ context.Context, endpoint string, op policy.OperationType) (*policy.PlatformGuardrail, error) {
	var g policy.PlatformGuardrail
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(guardrailKeyPrefix + guardrailKey(endpoint, op))
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get guardrail: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &g)
		})
	})
	if err != nil {
		return nil, err
	}
	if !found || !g.Active {
		return nil, nil
	}
	return &g, nil
}

// SaveGuardrail creates or replaces a guardrail.
func (s *BadgerGuardrailStore) SaveGuardrail(_ context.Context, g *policy.PlatformGuardrail) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal guardrail: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(guardrailKeyPrefix + guardrailKey(g.Endpoint, g.Operation))
		return txn.Set(key, data)
	})
}

// BadgerGrantStore implements GrantStore on BadgerDB. Grants are stored
// by ID with a secondary user-to-grant mapping for per-user listing.
type BadgerGrantStore struct {
	db *badger.DB
}

// NewBadgerGrantStore creates a BadgerDB-backed grant store.
func NewBadgerGrantStore(db *badger.DB) *BadgerGrantStore {
	return &BadgerGrantStore{db: db}
}

// SaveGrant persists a new grant.
func (s *BadgerGrantStore) SaveGrant(_ context.Context, g *policy.PermissionGrant) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(grantKeyPrefix+g.ID), data); err != nil {
			return fmt.Errorf("set grant: %w", err)
		}
		userKey := []byte(grantUserKeyPrefix + g.UserID + ":" + g.ID)
		if err := txn.Set(userKey, []byte(g.ID)); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}
		return nil
	})
}

// GetGrant returns a grant by ID.
func (s *BadgerGrantStore) GetGrant(_ context.Context, id string) (*policy.PermissionGrant, error) {
	var g policy.PermissionGrant

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(grantKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrGrantNotFound
		}
		if err != nil {
			return fmt.Errorf("get grant: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &g)
		})
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGrantStatus transitions a grant's status.
func (s *BadgerGrantStore) UpdateGrantStatus(ctx context.Context, id string, status policy.GrantStatus) error {
	g, err := s.GetGrant(ctx, id)
	if err != nil {
		return err
	}
	g.Status = status

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(grantKeyPrefix+id), data)
	})
}

// FindEffectiveGrants returns grants matching the request triple that
// are effective at the current instant.
func (s *BadgerGrantStore) FindEffectiveGrants(ctx context.Context, userID, endpoint string, op policy.OperationType) ([]policy.PermissionGrant, error) {
	all, err := s.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []policy.PermissionGrant
	for i := range all {
		g := all[i]
		if g.Matches(userID, endpoint, op) && g.IsEffective(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

// ListGrantsForUser returns all grants for a user regardless of status.
func (s *BadgerGrantStore) ListGrantsForUser(_ context.Context, userID string) ([]policy.PermissionGrant, error) {
	var out []policy.PermissionGrant

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(grantUserKeyPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var grantID string
			if err := it.Item().Value(func(val []byte) error {
				grantID = string(val)
				return nil
			}); err != nil {
				return fmt.Errorf("read user mapping: %w", err)
			}

			item, err := txn.Get([]byte(grantKeyPrefix + grantID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // mapping without grant, skip
			}
			if err != nil {
				return fmt.Errorf("get grant %s: %w", grantID, err)
			}

			var g policy.PermissionGrant
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &g)
			}); err != nil {
				return fmt.Errorf("unmarshal grant %s: %w", grantID, err)
			}
			out = append(out, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListExpirableGrants scans for ACTIVE grants whose window has passed.
func (s *BadgerGrantStore) ListExpirableGrants(_ context.Context) ([]policy.PermissionGrant, error) {
	now := time.Now()
	var out []policy.PermissionGrant

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(grantKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var g policy.PermissionGrant
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &g)
			}); err != nil {
				return fmt.Errorf("unmarshal grant: %w", err)
			}
			if g.Status == policy.GrantActive && g.ValidUntil != nil && now.After(*g.ValidUntil) {
				out = append(out, g)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
