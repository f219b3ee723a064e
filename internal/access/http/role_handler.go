package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	"github.com/allisson/compliance/internal/access/http/dto"
	accessUseCase "github.com/allisson/compliance/internal/access/usecase"
	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
	"github.com/allisson/compliance/internal/httputil"
	customValidation "github.com/allisson/compliance/internal/validation"
)

// RoleHandler handles HTTP requests for role→permission assignments.
type RoleHandler struct {
	catalogUseCase    accessUseCase.CatalogUseCase
	auditTrailUseCase auditUseCase.AuditTrailUseCase
	logger            *slog.Logger
}

// NewRoleHandler creates a new role handler with required dependencies.
func NewRoleHandler(
	catalogUseCase accessUseCase.CatalogUseCase,
	auditTrailUseCase auditUseCase.AuditTrailUseCase,
	logger *slog.Logger,
) *RoleHandler {
	return &RoleHandler{
		catalogUseCase:    catalogUseCase,
		auditTrailUseCase: auditTrailUseCase,
		logger:            logger,
	}
}

// ListHandler returns every editable role with its stored permission set.
// GET /v1/roles
func (h *RoleHandler) ListHandler(c *gin.Context) {
	rolePermissions := h.catalogUseCase.AllRolePermissions()
	c.JSON(http.StatusOK, dto.MapRolesToListResponse(rolePermissions))
}

// GetHandler returns one role's permission set. For super_admin the full
// registered set is returned, reflecting its implicit grants.
// GET /v1/roles/:role
func (h *RoleHandler) GetHandler(c *gin.Context) {
	role := accessDomain.Role(c.Param("role"))

	permissionIDs, err := h.catalogUseCase.RolePermissions(role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.RolePermissionsResponse{
		Role:          string(role),
		PermissionIDs: permissionIDs,
	})
}

// UpdateHandler replaces a role's permission set wholesale. An empty list
// revokes every grant.
// PUT /v1/roles/:role
func (h *RoleHandler) UpdateHandler(c *gin.Context) {
	role := accessDomain.Role(c.Param("role"))

	var req dto.UpdateRolePermissionsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	previous, err := h.catalogUseCase.RolePermissions(role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.catalogUseCase.UpdateRolePermissions(c.Request.Context(), role, req.PermissionIDs); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	updated, err := h.catalogUseCase.RolePermissions(role)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordMutation(c, role, previous, updated)

	c.JSON(http.StatusOK, dto.RolePermissionsResponse{
		Role:          string(role),
		PermissionIDs: updated,
	})
}

// recordMutation writes a role assignment change to the audit trail.
func (h *RoleHandler) recordMutation(
	c *gin.Context,
	role accessDomain.Role,
	previous []string,
	updated []string,
) {
	input := &auditDomain.EntryInput{
		Action:       "update",
		Resource:     "role",
		ResourceID:   string(role),
		ResourceType: "role",
		BeforeState:  map[string]any{"permission_ids": previous},
		AfterState:   map[string]any{"permission_ids": updated},
		Method:       c.Request.Method,
		Endpoint:     c.Request.URL.Path,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
	if identity, ok := GetIdentity(c.Request.Context()); ok && identity != nil {
		input.UserID = identity.ID
		input.UserName = identity.Name
		input.UserRole = string(identity.Role)
		input.SessionID = identity.SessionID
	}

	h.auditTrailUseCase.LogEntry(c.Request.Context(), input)
}
