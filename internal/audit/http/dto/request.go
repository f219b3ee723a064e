// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
)

// CreateEntryRequest carries a caller-described operation to record in the
// audit trail. Classification fields left empty are derived server-side.
type CreateEntryRequest struct {
	UserID             string         `json:"user_id"`
	UserName           string         `json:"user_name"`
	UserRole           string         `json:"user_role"`
	SessionID          string         `json:"session_id"`
	Action             string         `json:"action"`
	Resource           string         `json:"resource"`
	ResourceID         string         `json:"resource_id"`
	ResourceType       string         `json:"resource_type"`
	BeforeState        map[string]any `json:"before_state"`
	AfterState         map[string]any `json:"after_state"`
	IPAddress          string         `json:"ip_address"`
	UserAgent          string         `json:"user_agent"`
	Endpoint           string         `json:"endpoint"`
	Method             string         `json:"method"`
	StatusCode         int            `json:"status_code"`
	RiskLevel          string         `json:"risk_level"`
	ComplianceRelevant *bool          `json:"compliance_relevant"`
	DataClassification string         `json:"data_classification"`
	Description        string         `json:"description"`
	Metadata           map[string]any `json:"metadata"`
	Tags               []string       `json:"tags"`
	CorrelationID      string         `json:"correlation_id"`
	ParentActionID     string         `json:"parent_action_id"`
}

// Validate checks if the create entry request is valid. Risk level and data
// classification are optional but must belong to their closed sets when given.
func (r *CreateEntryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RiskLevel,
			validation.In("low", "medium", "high", "critical"),
		),
		validation.Field(&r.DataClassification,
			validation.In("public", "internal", "confidential", "restricted"),
		),
		validation.Field(&r.StatusCode,
			validation.Min(0),
			validation.Max(599),
		),
	)
}

// ToEntryInput converts the request to the domain input.
func (r *CreateEntryRequest) ToEntryInput() *auditDomain.EntryInput {
	return &auditDomain.EntryInput{
		UserID:             r.UserID,
		UserName:           r.UserName,
		UserRole:           r.UserRole,
		SessionID:          r.SessionID,
		Action:             r.Action,
		Resource:           r.Resource,
		ResourceID:         r.ResourceID,
		ResourceType:       r.ResourceType,
		BeforeState:        r.BeforeState,
		AfterState:         r.AfterState,
		IPAddress:          r.IPAddress,
		UserAgent:          r.UserAgent,
		Endpoint:           r.Endpoint,
		Method:             r.Method,
		StatusCode:         r.StatusCode,
		RiskLevel:          auditDomain.RiskLevel(r.RiskLevel),
		ComplianceRelevant: r.ComplianceRelevant,
		DataClassification: auditDomain.DataClassification(r.DataClassification),
		Description:        r.Description,
		Metadata:           r.Metadata,
		Tags:               r.Tags,
		CorrelationID:      r.CorrelationID,
		ParentActionID:     r.ParentActionID,
	}
}
