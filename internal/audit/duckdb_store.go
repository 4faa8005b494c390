// PolicyGate - Policy Decision Engine for Multi-Tenant Business Platforms
// Copyright 2026 Fabric Mesh (fabricmesh)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fabricmesh/policygate

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/fabricmesh/policygate/internal/logging"
	"github.com/fabricmesh/policygate/internal/policy"
)

// DuckDBStore implements Store on DuckDB. Decision history is written
// to a single wide table so reporting queries need no joins.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps an open DuckDB handle. The caller owns the
// handle's lifecycle and must call CreateTable before the first Save.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the decision history table and its indexes.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS policy_decision_audit (
			id TEXT PRIMARY KEY,
			evaluated_at TIMESTAMPTZ NOT NULL,

			user_id TEXT NOT NULL,
			company_id TEXT,
			roles JSON,
			company_relationship TEXT,

			endpoint TEXT NOT NULL,
			operation TEXT NOT NULL,
			scope TEXT,

			allowed BOOLEAN NOT NULL,
			reason TEXT NOT NULL,
			policy_name TEXT NOT NULL,
			policy_version TEXT NOT NULL,

			cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
			duration_ms BIGINT NOT NULL DEFAULT 0,

			correlation_id TEXT,
			request_id TEXT,
			request_ip TEXT,

			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_pda_evaluated_at ON policy_decision_audit(evaluated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_pda_user_id ON policy_decision_audit(user_id);
		CREATE INDEX IF NOT EXISTS idx_pda_endpoint ON policy_decision_audit(endpoint);
		CREATE INDEX IF NOT EXISTS idx_pda_allowed ON policy_decision_audit(allowed);
		CREATE INDEX IF NOT EXISTS idx_pda_reason ON policy_decision_audit(reason);
		CREATE INDEX IF NOT EXISTS idx_pda_correlation_id ON policy_decision_audit(correlation_id);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Policy decision audit table created/verified")
	return nil
}

// Save persists one decision record.
func (s *DuckDBStore) Save(ctx context.Context, rec *DecisionRecord) error {
	if rec == nil {
		return fmt.Errorf("decision record cannot be nil")
	}

	query := `
		INSERT INTO policy_decision_audit (
			id, evaluated_at,
			user_id, company_id, roles, company_relationship,
			endpoint, operation, scope,
			allowed, reason, policy_name, policy_version,
			cache_hit, duration_ms,
			correlation_id, request_id, request_ip,
			created_at
		) VALUES (
			?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?, ?, ?,
			?
		)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.EvaluatedAt,
		rec.UserID,
		nullable(rec.CompanyID),
		marshalRoles(rec.Roles),
		nullable(string(rec.Relationship)),
		rec.Endpoint,
		string(rec.Operation),
		nullable(string(rec.Scope)),
		rec.Allowed,
		rec.Reason,
		rec.PolicyName,
		rec.Version,
		rec.CacheHit,
		rec.DurationMs,
		nullable(rec.CorrelationID),
		nullable(rec.RequestID),
		nullable(rec.RequestIP),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save decision record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*DecisionRecord, error) {
	query := selectColumns + ` FROM policy_decision_audit WHERE id = ?`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("decision record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get decision record: %w", err)
	}
	return rec, nil
}

// Query retrieves records matching the filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error) {
	query, args := buildQuery(filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision records: %w", err)
	}
	defer rows.Close()

	var records []DecisionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan decision record row")
			continue
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision records: %w", err)
	}
	return records, nil
}

// Count returns the number of records matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	query, args := buildQuery(filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count decision records: %w", err)
	}
	return count, nil
}

// Delete removes records evaluated before olderThan.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM policy_decision_audit WHERE evaluated_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old decision records: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).
			Msg("Deleted old policy decision records")
	}
	return count, nil
}

// GetStats summarizes records evaluated at or after since.
func (s *DuckDBStore) GetStats(ctx context.Context, since time.Time) (*Stats, error) {
	stats := &Stats{ByReason: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN allowed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT allowed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0),
			MIN(evaluated_at),
			MAX(evaluated_at)
		FROM policy_decision_audit
		WHERE evaluated_at >= ?
	`, since)

	var oldest, newest sql.NullTime
	if err := row.Scan(
		&stats.TotalDecisions,
		&stats.AllowCount,
		&stats.DenyCount,
		&stats.CacheHitCount,
		&stats.AvgLatencyMs,
		&oldest,
		&newest,
	); err != nil {
		return nil, fmt.Errorf("failed to get decision stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestDecision = &oldest.Time
	}
	if newest.Valid {
		stats.NewestDecision = &newest.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reason, COUNT(*)
		FROM policy_decision_audit
		WHERE evaluated_at >= ?
		GROUP BY reason
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get reason counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reason string
		var n int64
		if err := rows.Scan(&reason, &n); err == nil {
			stats.ByReason[reason] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reason counts: %w", err)
	}
	return stats, nil
}

const selectColumns = `
	SELECT
		id, evaluated_at,
		user_id, company_id,
		CAST(roles AS VARCHAR) as roles,
		company_relationship,
		endpoint, operation, scope,
		allowed, reason, policy_name, policy_version,
		cache_hit, duration_ms,
		correlation_id, request_id, request_ip`

// buildQuery constructs the SQL query for the filter.
func buildQuery(filter QueryFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Endpoint != "" {
		conditions = append(conditions, "endpoint LIKE ?")
		args = append(args, filter.Endpoint+"%")
	}
	if filter.Operation != "" {
		conditions = append(conditions, "operation = ?")
		args = append(args, string(filter.Operation))
	}
	if filter.Reason != "" {
		conditions = append(conditions, "reason = ?")
		args = append(args, filter.Reason)
	}
	if filter.DeniedOnly {
		conditions = append(conditions, "allowed = FALSE")
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "evaluated_at >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "evaluated_at <= ?")
		args = append(args, filter.Until)
	}

	var query string
	if countOnly {
		query = "SELECT COUNT(*) FROM policy_decision_audit"
	} else {
		query = selectColumns + " FROM policy_decision_audit"
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if !countOnly {
		query += " ORDER BY evaluated_at DESC"
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		}
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	return query, args
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*DecisionRecord, error) {
	var rec DecisionRecord
	var companyID, relationship, scope sql.NullString
	var rolesJSON sql.NullString
	var correlationID, requestID, requestIP sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.EvaluatedAt,
		&rec.UserID,
		&companyID,
		&rolesJSON,
		&relationship,
		&rec.Endpoint,
		(*string)(&rec.Operation),
		&scope,
		&rec.Allowed,
		&rec.Reason,
		&rec.PolicyName,
		&rec.Version,
		&rec.CacheHit,
		&rec.DurationMs,
		&correlationID,
		&requestID,
		&requestIP,
	)
	if err != nil {
		return nil, err
	}

	rec.CompanyID = companyID.String
	rec.Relationship = policy.CompanyRelationshipKind(relationship.String)
	rec.Scope = policy.DataScope(scope.String)
	rec.CorrelationID = correlationID.String
	rec.RequestID = requestID.String
	rec.RequestIP = requestIP.String

	if rolesJSON.Valid && rolesJSON.String != "" {
		if err := json.Unmarshal([]byte(rolesJSON.String), &rec.Roles); err != nil {
			logging.Warn().Err(err).Str("id", rec.ID).Msg("Failed to unmarshal roles column")
		}
	}
	return &rec, nil
}

func marshalRoles(roles []string) string {
	if len(roles) == 0 {
		return "[]"
	}
	data, err := json.Marshal(roles)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
