// Package domain defines the audit trail domain models.
// An Entry is one immutable record describing a single observed operation,
// enriched with derived risk and classification metadata.
package domain

import (
	"time"
)

// RiskLevel is the derived severity of an operation for review prioritization.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// IsValid reports whether the risk level is a member of the enumeration.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// DataClassification is the sensitivity tier of the resource touched by an operation.
type DataClassification string

const (
	ClassificationPublic       DataClassification = "public"
	ClassificationInternal     DataClassification = "internal"
	ClassificationConfidential DataClassification = "confidential"
	ClassificationRestricted   DataClassification = "restricted"
)

// IsValid reports whether the classification is a member of the enumeration.
func (d DataClassification) IsValid() bool {
	switch d {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential, ClassificationRestricted:
		return true
	}
	return false
}

// Entry is an immutable audit trail record. Entries are created once by the
// logger and never updated or deleted through any API path (append-only ledger).
type Entry struct {
	ID                 string
	Timestamp          time.Time
	UserID             string
	UserName           string
	UserRole           string
	SessionID          string
	Action             string
	Resource           string
	ResourceID         string
	ResourceType       string
	BeforeState        map[string]any
	AfterState         map[string]any
	IPAddress          string
	UserAgent          string
	Endpoint           string
	Method             string
	StatusCode         int
	RiskLevel          RiskLevel
	ComplianceRelevant bool
	DataClassification DataClassification
	Description        string
	Metadata           map[string]any
	Tags               []string
	CorrelationID      string
	ParentActionID     string
}

// EntryInput carries the caller-supplied portion of an entry. ID and Timestamp
// are always assigned by the logger; classification fields left empty are
// derived from Method and Endpoint by the classification engine.
type EntryInput struct {
	UserID             string
	UserName           string
	UserRole           string
	SessionID          string
	Action             string
	Resource           string
	ResourceID         string
	ResourceType       string
	BeforeState        map[string]any
	AfterState         map[string]any
	IPAddress          string
	UserAgent          string
	Endpoint           string
	Method             string
	StatusCode         int
	RiskLevel          RiskLevel
	ComplianceRelevant *bool
	DataClassification DataClassification
	Description        string
	Metadata           map[string]any
	Tags               []string
	CorrelationID      string
	ParentActionID     string
}

// EntryFilter selects entries for queries. All set fields are combined with
// AND semantics; Tags requires every listed tag to be present on the entry.
// StartDate and EndDate are inclusive bounds on Timestamp.
type EntryFilter struct {
	UserID             string
	Action             string
	Resource           string
	ResourceType       string
	RiskLevel          RiskLevel
	ComplianceRelevant *bool
	DataClassification DataClassification
	StartDate          *time.Time
	EndDate            *time.Time
	Tags               []string
	Offset             int
	Limit              int
}

// TimeRange bounds the timestamps of the stored entries. Both fields are nil
// when no entries exist.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Stats aggregates the audit trail. Invariant: the risk level counts sum to
// TotalEntries.
type Stats struct {
	TotalEntries            int64
	EntriesByAction         map[string]int64
	EntriesByRiskLevel      map[string]int64
	EntriesByUser           map[string]int64
	ComplianceRelevantCount int64
	CriticalRiskCount       int64
	TimeRange               TimeRange
}
