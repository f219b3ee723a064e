// Package http provides HTTP handlers for audit trail operations.
// Reads of the trail are themselves recorded, so consulting the audit log
// leaves a trace in it.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	accessHTTP "github.com/allisson/compliance/internal/access/http"
	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	"github.com/allisson/compliance/internal/audit/http/dto"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
	"github.com/allisson/compliance/internal/httputil"
	customValidation "github.com/allisson/compliance/internal/validation"
)

// AuditTrailHandler handles HTTP requests for recording and querying the
// audit trail.
type AuditTrailHandler struct {
	auditTrailUseCase auditUseCase.AuditTrailUseCase
	logger            *slog.Logger
}

// NewAuditTrailHandler creates a new audit trail handler with required dependencies.
func NewAuditTrailHandler(
	auditTrailUseCase auditUseCase.AuditTrailUseCase,
	logger *slog.Logger,
) *AuditTrailHandler {
	return &AuditTrailHandler{
		auditTrailUseCase: auditTrailUseCase,
		logger:            logger,
	}
}

// CreateHandler records one operation in the audit trail.
// POST /v1/audit-trail
// Returns 202 Accepted with the assigned entry id; persistence is
// asynchronous and never blocks the caller.
func (h *AuditTrailHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateEntryRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := req.ToEntryInput()
	if input.IPAddress == "" {
		input.IPAddress = c.ClientIP()
	}
	if input.UserAgent == "" {
		input.UserAgent = c.Request.UserAgent()
	}

	entryID := h.auditTrailUseCase.LogEntry(c.Request.Context(), input)

	c.JSON(http.StatusAccepted, dto.CreateEntryResponse{ID: entryID})
}

// ListHandler returns entries matching the query filters, newest first.
// GET /v1/audit-trail
func (h *AuditTrailHandler) ListHandler(c *gin.Context) {
	filter, err := parseEntryFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	entries, err := h.auditTrailUseCase.ListEntries(c.Request.Context(), filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordRead(c, "audit trail queried")

	c.JSON(http.StatusOK, dto.MapEntriesToListResponse(entries))
}

// StatsHandler aggregates the whole trail.
// GET /v1/audit-trail/stats
func (h *AuditTrailHandler) StatsHandler(c *gin.Context) {
	stats, err := h.auditTrailUseCase.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordRead(c, "audit trail statistics queried")

	c.JSON(http.StatusOK, dto.MapStatsToResponse(stats))
}

// recordRead logs a read of the audit trail itself.
func (h *AuditTrailHandler) recordRead(c *gin.Context, details string) {
	access := auditUseCase.DataAccess{
		Method:    c.Request.Method,
		Endpoint:  c.Request.URL.Path,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Details:   details,
	}
	if identity, ok := accessHTTP.GetIdentity(c.Request.Context()); ok && identity != nil {
		access.UserID = identity.ID
		access.UserName = identity.Name
		access.UserRole = string(identity.Role)
		access.SessionID = identity.SessionID
	}

	h.auditTrailUseCase.LogDataAccess(c.Request.Context(), access)
}

// parseEntryFilter builds an entry filter from the request's query parameters.
func parseEntryFilter(c *gin.Context) (*auditDomain.EntryFilter, error) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		return nil, err
	}

	filter := &auditDomain.EntryFilter{
		UserID:       c.Query("user_id"),
		Action:       c.Query("action"),
		Resource:     c.Query("resource"),
		ResourceType: c.Query("resource_type"),
		Offset:       offset,
		Limit:        limit,
	}

	if riskLevel := c.Query("risk_level"); riskLevel != "" {
		level := auditDomain.RiskLevel(riskLevel)
		if !level.IsValid() {
			return nil, fmt.Errorf("invalid risk_level parameter: %q", riskLevel)
		}
		filter.RiskLevel = level
	}

	if classification := c.Query("data_classification"); classification != "" {
		tier := auditDomain.DataClassification(classification)
		if !tier.IsValid() {
			return nil, fmt.Errorf("invalid data_classification parameter: %q", classification)
		}
		filter.DataClassification = tier
	}

	if relevant := c.Query("compliance_relevant"); relevant != "" {
		value, err := strconv.ParseBool(relevant)
		if err != nil {
			return nil, fmt.Errorf("invalid compliance_relevant parameter: must be a boolean")
		}
		filter.ComplianceRelevant = &value
	}

	if startDate := c.Query("start_date"); startDate != "" {
		start, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date parameter: must be RFC 3339")
		}
		filter.StartDate = &start
	}

	if endDate := c.Query("end_date"); endDate != "" {
		end, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date parameter: must be RFC 3339")
		}
		filter.EndDate = &end
	}

	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	return filter, nil
}
