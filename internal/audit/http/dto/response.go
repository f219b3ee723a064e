package dto

import (
	"time"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
)

// CreateEntryResponse acknowledges an accepted entry. Persistence is
// asynchronous, so only the assigned id is returned.
type CreateEntryResponse struct {
	ID string `json:"id"`
}

// EntryResponse represents an audit entry in API responses.
type EntryResponse struct {
	ID                 string         `json:"id"`
	Timestamp          time.Time      `json:"timestamp"`
	UserID             string         `json:"user_id,omitempty"`
	UserName           string         `json:"user_name,omitempty"`
	UserRole           string         `json:"user_role,omitempty"`
	SessionID          string         `json:"session_id,omitempty"`
	Action             string         `json:"action"`
	Resource           string         `json:"resource"`
	ResourceID         string         `json:"resource_id,omitempty"`
	ResourceType       string         `json:"resource_type,omitempty"`
	BeforeState        map[string]any `json:"before_state,omitempty"`
	AfterState         map[string]any `json:"after_state,omitempty"`
	IPAddress          string         `json:"ip_address,omitempty"`
	UserAgent          string         `json:"user_agent,omitempty"`
	Endpoint           string         `json:"endpoint,omitempty"`
	Method             string         `json:"method,omitempty"`
	StatusCode         int            `json:"status_code,omitempty"`
	RiskLevel          string         `json:"risk_level"`
	ComplianceRelevant bool           `json:"compliance_relevant"`
	DataClassification string         `json:"data_classification"`
	Description        string         `json:"description,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	Tags               []string       `json:"tags"`
	CorrelationID      string         `json:"correlation_id,omitempty"`
	ParentActionID     string         `json:"parent_action_id,omitempty"`
}

// MapEntryToResponse converts a domain entry to an API response.
func MapEntryToResponse(entry *auditDomain.Entry) EntryResponse {
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryResponse{
		ID:                 entry.ID,
		Timestamp:          entry.Timestamp,
		UserID:             entry.UserID,
		UserName:           entry.UserName,
		UserRole:           entry.UserRole,
		SessionID:          entry.SessionID,
		Action:             entry.Action,
		Resource:           entry.Resource,
		ResourceID:         entry.ResourceID,
		ResourceType:       entry.ResourceType,
		BeforeState:        entry.BeforeState,
		AfterState:         entry.AfterState,
		IPAddress:          entry.IPAddress,
		UserAgent:          entry.UserAgent,
		Endpoint:           entry.Endpoint,
		Method:             entry.Method,
		StatusCode:         entry.StatusCode,
		RiskLevel:          string(entry.RiskLevel),
		ComplianceRelevant: entry.ComplianceRelevant,
		DataClassification: string(entry.DataClassification),
		Description:        entry.Description,
		Metadata:           entry.Metadata,
		Tags:               tags,
		CorrelationID:      entry.CorrelationID,
		ParentActionID:     entry.ParentActionID,
	}
}

// ListEntriesResponse represents a paginated list of audit entries.
type ListEntriesResponse struct {
	Data []EntryResponse `json:"data"`
}

// MapEntriesToListResponse converts domain entries to a list response.
func MapEntriesToListResponse(entries []*auditDomain.Entry) ListEntriesResponse {
	data := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapEntryToResponse(entry))
	}

	return ListEntriesResponse{
		Data: data,
	}
}

// TimeRangeResponse bounds the stored entry timestamps.
type TimeRangeResponse struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// StatsResponse represents audit trail aggregates in API responses.
type StatsResponse struct {
	TotalEntries            int64             `json:"total_entries"`
	EntriesByAction         map[string]int64  `json:"entries_by_action"`
	EntriesByRiskLevel      map[string]int64  `json:"entries_by_risk_level"`
	EntriesByUser           map[string]int64  `json:"entries_by_user"`
	ComplianceRelevantCount int64             `json:"compliance_relevant_count"`
	CriticalRiskCount       int64             `json:"critical_risk_count"`
	TimeRange               TimeRangeResponse `json:"time_range"`
}

// MapStatsToResponse converts domain stats to an API response.
func MapStatsToResponse(stats *auditDomain.Stats) StatsResponse {
	return StatsResponse{
		TotalEntries:            stats.TotalEntries,
		EntriesByAction:         stats.EntriesByAction,
		EntriesByRiskLevel:      stats.EntriesByRiskLevel,
		EntriesByUser:           stats.EntriesByUser,
		ComplianceRelevantCount: stats.ComplianceRelevantCount,
		CriticalRiskCount:       stats.CriticalRiskCount,
		TimeRange: TimeRangeResponse{
			Start: stats.TimeRange.Start,
			End:   stats.TimeRange.End,
		},
	}
}
