// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/metrics"
	"github.com/fabricmesh/policygate/internal/policy"
)

// Publisher emits decision records onto the audit event stream.
type Publisher interface {
	Publish(ctx context.Context, rec *DecisionRecord) error
}

// Config tunes the audit service.
type Config struct {
	// QueueSize bounds the async publish queue. Records are dropped,
	// with a metric, once the queue is full.
	QueueSize int `koanf:"queue_size"`

	// RetentionDays controls how long decision history is kept.
	// Zero disables the cleanup routine.
	RetentionDays int `koanf:"retention_days"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		QueueSize:       1000,
		RetentionDays:   90,
		CleanupInterval: time.Hour,
	}
}

// Service records policy decisions. The durable store write happens
// synchronously on the evaluation path; stream publication is handed
// to a background worker so a slow or unavailable broker never delays
// or fails a decision.
type Service struct {
	store     Store
	publisher Publisher
	config    *Config

	queue chan *DecisionRecord
	done  chan struct{}
	wg    sync.WaitGroup

	// publishWarnLimiter keeps a misbehaving broker from flooding
	// the logs with one warning per decision.
	publishWarnLimiter *rate.Limiter

	closeOnce sync.Once
}

// NewService creates an audit service and starts its publish worker.
// publisher may be nil, in which case records are only persisted.
func NewService(store Store, publisher Publisher, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1000
	}

	s := &Service{
		store:              store,
		publisher:          publisher,
		config:             config,
		queue:              make(chan *DecisionRecord, config.QueueSize),
		done:               make(chan struct{}),
		publishWarnLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}

	if publisher != nil {
		s.wg.Add(1)
		go s.publishWorker()
	}
	return s
}

// Record persists the decision and enqueues it for stream publication.
// The returned error reflects only the durable write; publish failures
// are logged and counted but never surfaced to the evaluation path.
func (s *Service) Record(ctx context.Context, pctx *policy.PolicyContext, d *policy.PolicyDecision) error {
	if d == nil {
		return fmt.Errorf("decision cannot be nil")
	}

	rec := NewDecisionRecord(uuid.NewString(), pctx, d)

	start := time.Now()
	err := s.store.Save(ctx, rec)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AuditWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to persist decision record: %w", err)
	}
	metrics.AuditWrites.WithLabelValues("ok").Inc()

	if s.publisher == nil {
		return nil
	}

	select {
	case s.queue <- rec:
	default:
		// Queue full. The row is already durable; dropping the
		// stream copy is acceptable.
		metrics.AuditPublishes.WithLabelValues("dropped").Inc()
		if s.publishWarnLimiter.Allow() {
			logging.Warn().
				Int("queue_size", s.config.QueueSize).
				Msg("Audit publish queue full, dropping stream events")
		}
	}
	return nil
}

// publishWorker drains the queue until Close.
func (s *Service) publishWorker() {
	defer s.wg.Done()

	for {
		select {
		case rec := <-s.queue:
			s.publish(rec)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case rec := <-s.queue:
					s.publish(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) publish(rec *DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.publisher.Publish(ctx, rec); err != nil {
		metrics.AuditPublishes.WithLabelValues("error").Inc()
		if s.publishWarnLimiter.Allow() {
			logging.Warn().Err(err).
				Str("correlation_id", rec.CorrelationID).
				Msg("Audit stream publish failed")
		}
		return
	}
	metrics.AuditPublishes.WithLabelValues("ok").Inc()
}

// Query exposes decision history to the admin API.
func (s *Service) Query(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	return s.store.Query(ctx, filter)
}

// Count exposes filtered history counts to the admin API.
func (s *Service) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.store.Count(ctx, filter)
}

// Stats summarizes decisions recorded at or after since.
func (s *Service) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	return s.store.GetStats(ctx, since)
}

// StartCleanupRoutine deletes records past the retention window until
// ctx is cancelled. No-op when retention is disabled.
func (s *Service) StartCleanupRoutine(ctx context.Context) {
	if s.config.RetentionDays <= 0 {
		return
	}
	interval := s.config.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
				if _, err := s.store.Delete(ctx, cutoff); err != nil {
					logging.Error().Err(err).Msg("Audit retention sweep failed")
				}
			}
		}
	}()
}

// Close stops the background workers, draining queued publications.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}
