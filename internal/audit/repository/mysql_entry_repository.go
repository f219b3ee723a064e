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

// MySQLEntryRepository implements audit entry persistence for MySQL. Differs
// from PostgreSQL in placeholder style and in using JSON_CONTAINS for the tag
// containment filter.
type MySQLEntryRepository struct {
	db *sql.DB
}

// NewMySQLEntryRepository creates a new MySQL audit entry repository.
func NewMySQLEntryRepository(db *sql.DB) *MySQLEntryRepository {
	return &MySQLEntryRepository{db: db}
}

// Create inserts a new audit entry.
func (m *MySQLEntryRepository) Create(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	beforeJSON, afterJSON, metadataJSON, tagsJSON, err := marshalEntryJSON(entry)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO audit_entries (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryColumns)

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

// List retrieves entries matching the filter, newest first.
func (m *MySQLEntryRepository) List(
	ctx context.Context,
	filter *auditDomain.EntryFilter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	conditions := make([]string, 0)
	args := make([]any, 0)

	addCondition := func(column string, value any) {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
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
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.EndDate)
	}
	if len(filter.Tags) > 0 {
		tagsJSON, err := json.Marshal(filter.Tags)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal tag filter")
		}
		// JSON containment: the entry must carry every requested tag.
		conditions = append(conditions, "JSON_CONTAINS(tags, ?)")
		args = append(args, tagsJSON)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM audit_entries %s
		ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`, entryColumns, where)

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

// Stats aggregates the whole trail.
func (m *MySQLEntryRepository) Stats(ctx context.Context) (*auditDomain.Stats, error) {
	querier := database.GetTx(ctx, m.db)

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
func (m *MySQLEntryRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	var count int64
	err := querier.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM audit_entries WHERE timestamp < ?",
		cutoff,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.WrapStorage(err, "failed to count audit entries")
	}
	return count, nil
}

// DeleteOlderThan removes entries with a timestamp before the cutoff.
func (m *MySQLEntryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
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
