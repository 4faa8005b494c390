// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

//go:build !nats

package events

import (
	"context"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fabricmesh/policygate/internal/audit"
)

// Publisher is a stub when NATS dependencies are not compiled in.
// Build with -tags=nats to enable stream publishing.
type Publisher struct{}

// NewPublisher returns an error when NATS support is not compiled in.
func NewPublisher(cfg PublisherConfig, logger interface{}) (*Publisher, error) {
	return nil, fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// SetCircuitBreaker is a no-op stub.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {}

// Publish is a stub that returns an error.
func (p *Publisher) Publish(ctx context.Context, rec *audit.DecisionRecord) error {
	return fmt.Errorf("NATS publisher not available: build with -tags=nats")
}

// Close is a no-op stub.
func (p *Publisher) Close() error {
	return nil
}

// NewAuditBreaker returns a circuit breaker tuned for audit publishing.
func NewAuditBreaker() *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name: "policy-audit-publish",
	})
}
