// Package repository implements audit entry persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	"github.com/allisson/compliance/internal/database"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// entryColumns is the canonical column list shared by every entry query.
const entryColumns = `id, timestamp, user_id, user_name, user_role, session_id, action, resource,
	resource_id, resource_type, before_state, after_state, ip_address, user_agent, endpoint,
	method, status_code, risk_level, compliance_relevant, data_classification, description,
	metadata, tags, correlation_id, parent_action_id`

// PostgreSQLEntryRepository implements audit entry persistence for PostgreSQL.
// State snapshots, metadata and tags are stored as JSONB; tag filtering relies
// on JSONB containment so every requested tag must be present.
type PostgreSQLEntryRepository struct {
	db *sql.DB
}

// NewPostgreSQLEntryRepository creates a new PostgreSQL audit entry repository.
func NewPostgreSQLEntryRepository(db *sql.DB) *PostgreSQLEntryRepository {
	return &PostgreSQLEntryRepository{db: db}
}

// Create inserts a new audit entry. There is no update path: entries are
// immutable once written.
func (p *PostgreSQLEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	beforeJSON, afterJSON, metadataJSON, tagsJSON, err := marshalEntryJSON(entry)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO audit_entries (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)`, entryColumns)

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Timestamp,
		entry.UserID,
		entry.UserName,
		entry.UserRole,
		entry.SessionID,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.ResourceType,
		beforeJSON,
		afterJSON,
		entry.IPAddress,
		entry.UserAgent,
		entry.Endpoint,
		entry.Method,
		entry.StatusCode,
		string(entry.RiskLevel),
		entry.ComplianceRelevant,
		string(entry.DataClassification),
		entry.Description,
		metadataJSON,
		tagsJSON,
		entry.CorrelationID,
		entry.ParentActionID,
	)
	if err != nil {
		return apperrors.WrapStorage(err, "failed to create audit entry")
	}

	return nil
}

// List retrieves entries matching the filter, newest first. All set filter
// fields combine with AND semantics.
func (p *PostgreSQLEntryRepository) List(
	ctx context.Context,
	filter *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	conditions := make([]string, 0)
	args := make([]any, 0)

	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.UserID != "" {
		addCondition("user_id", filter.UserID)
	}
	if filter.Action != "" {
		addCondition("action", filter.Action)
	}
	if filter.Resource != "" {
		addCondition("resource", filter.Resource)
	}
	if filter.ResourceType != "" {
		addCondition("resource_type", filter.ResourceType)
	}
	if filter.RiskLevel != "" {
		addCondition("risk_level", string(filter.RiskLevel))
	}
	if filter.DataClassification != "" {
		addCondition("data_classification", string(filter.DataClassification))
	}
	if filter.ComplianceRelevant != nil {
		addCondition("compliance_relevant", *filter.ComplianceRelevant)
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}
	if len(filter.Tags) > 0 {
		tagsJSON, err := json.Marshal(filter.Tags)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal tag filter")
		}
		// JSONB containment: the entry must carry every requested tag.
		args = append(args, tagsJSON)
		conditions = append(conditions, fmt.Sprintf("tags @> $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM audit_entries %s
		ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, len(args)-1, len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate audit entries")
	}

	return entries, nil
}

// Stats aggregates the whole trail: totals, per-action, per-risk and per-user
// counts, and the covered time range.
func (p *PostgreSQLEntryRepository) Stats(ctx context.Context) (*auditDomain.Stats, error) {
	querier := database.GetTx(ctx, p.db)

	stats := &auditDomain.Stats{
		EntriesByAction:    make(map[string]int64),
		EntriesByRiskLevel: make(map[string]int64),
		EntriesByUser:      make(map[string]int64),
	}

	totalsQuery := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN compliance_relevant THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN risk_level = 'critical' THEN 1 ELSE 0 END), 0),
		MIN(timestamp), MAX(timestamp)
		FROM audit_entries`

	var start, end sql.NullTime
	err := querier.QueryRowContext(ctx, totalsQuery).Scan(
		&stats.TotalEntries,
		&stats.ComplianceRelevantCount,
		&stats.CriticalRiskCount,
		&start,
		&end,
	)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to aggregate audit entry totals")
	}
	if start.Valid {
		stats.TimeRange.Start = &start.Time
	}
	if end.Valid {
		stats.TimeRange.End = &end.Time
	}

	groupQueries := []struct {
		query  string
		counts map[string]int64
	}{
		{"SELECT action, COUNT(*) FROM audit_entries GROUP BY action", stats.EntriesByAction},
		{"SELECT risk_level, COUNT(*) FROM audit_entries GROUP BY risk_level", stats.EntriesByRiskLevel},
		{"SELECT user_id, COUNT(*) FROM audit_entries WHERE user_id <> '' GROUP BY user_id", stats.EntriesByUser},
	}

	for _, gq := range groupQueries {
		if err := scanGroupCounts(ctx, querier, gq.query, gq.counts); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// CountOlderThan counts entries with a timestamp before the cutoff.
func (p *PostgreSQLEntryRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM audit_entries WHERE timestamp < $1",
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.WrapStorage(err, "failed to count audit entries")
	}
	return count, nil
}

// DeleteOlderThan removes entries with a timestamp before the cutoff. Only the
// retention job reaches this; no API path deletes entries.
func (p *PostgreSQLEntryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		"DELETE FROM audit_entries WHERE timestamp < $1",
		cutoff,
	)
	if err != nil {
		return 0, apperrors.WrapStorage(err, "failed to delete audit entries")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.WrapStorage(err, "failed to read deleted row count")
	}
	return deleted, nil
}

// marshalEntryJSON serializes the JSON columns of an entry. Nil maps are
// stored as database NULL; tags always serialize so containment filters work.
func marshalEntryJSON(entry *auditDomain.Entry) (before, after, metadata, tags []byte, err error) {
	if entry.BeforeState != nil {
		if before, err = json.Marshal(entry.BeforeState); err != nil {
			return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal before state")
		}
	}
	if entry.AfterState != nil {
		if after, err = json.Marshal(entry.AfterState); err != nil {
			return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal after state")
		}
	}
	if entry.Metadata != nil {
		if metadata, err = json.Marshal(entry.Metadata); err != nil {
			return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal metadata")
		}
	}

	entryTags := entry.Tags
	if entryTags == nil {
		entryTags = []string{}
	}
	if tags, err = json.Marshal(entryTags); err != nil {
		return nil, nil, nil, nil, apperrors.Wrap(err, "failed to marshal tags")
	}

	return before, after, metadata, tags, nil
}

// scanEntry reads one row in entryColumns order.
func scanEntry(rows *sql.Rows) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var beforeJSON, afterJSON, metadataJSON, tagsJSON []byte
	var riskLevel, dataClassification string

	err := rows.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.UserID,
		&entry.UserName,
		&entry.UserRole,
		&entry.SessionID,
		&entry.Action,
		&entry.Resource,
		&entry.ResourceID,
		&entry.ResourceType,
		&beforeJSON,
		&afterJSON,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.Endpoint,
		&entry.Method,
		&entry.StatusCode,
		&riskLevel,
		&entry.ComplianceRelevant,
		&dataClassification,
		&entry.Description,
		&metadataJSON,
		&tagsJSON,
		&entry.CorrelationID,
		&entry.ParentActionID,
	)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to scan audit entry")
	}

	entry.RiskLevel = auditDomain.RiskLevel(riskLevel)
	entry.DataClassification = auditDomain.DataClassification(dataClassification)

	if beforeJSON != nil {
		if err := json.Unmarshal(beforeJSON, &entry.BeforeState); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal before state")
		}
	}
	if afterJSON != nil {
		if err := json.Unmarshal(afterJSON, &entry.AfterState); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal after state")
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal metadata")
		}
	}
	if tagsJSON != nil {
		if err := json.Unmarshal(tagsJSON, &entry.Tags); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal tags")
		}
	}

	return &entry, nil
}

// scanGroupCounts runs a key/count aggregation query into the given map.
func scanGroupCounts(
	ctx context.Context,
	querier database.Querier,
	query string,
	counts map[string]int64,
) error {
	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return apperrors.WrapStorage(err, "failed to aggregate audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return apperrors.WrapStorage(err, "failed to scan aggregation row")
		}
		counts[key] = count
	}

	if err := rows.Err(); err != nil {
		return apperrors.WrapStorage(err, "failed to iterate aggregation rows")
	}
	return nil
}
