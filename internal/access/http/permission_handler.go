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

// PermissionHandler handles HTTP requests for permission catalog management.
// Every mutation is recorded in the audit trail with before/after snapshots.
type PermissionHandler struct {
	catalogUseCase    accessUseCase.CatalogUseCase
	auditTrailUseCase auditUseCase.AuditTrailUseCase
	logger            *slog.Logger
}

// NewPermissionHandler creates a new permission handler with required dependencies.
func NewPermissionHandler(
	catalogUseCase accessUseCase.CatalogUseCase,
	auditTrailUseCase auditUseCase.AuditTrailUseCase,
	logger *slog.Logger,
) *PermissionHandler {
	return &PermissionHandler{
		catalogUseCase:    catalogUseCase,
		auditTrailUseCase: auditTrailUseCase,
		logger:            logger,
	}
}

// ListHandler returns the full permission catalog in insertion order.
// GET /v1/permissions
func (h *PermissionHandler) ListHandler(c *gin.Context) {
	permissions := h.catalogUseCase.AllPermissions()
	c.JSON(http.StatusOK, dto.MapPermissionsToListResponse(permissions))
}

// GetHandler retrieves a single permission by id.
// GET /v1/permissions/:id
func (h *PermissionHandler) GetHandler(c *gin.Context) {
	permission, err := h.catalogUseCase.PermissionByID(c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPermissionToResponse(permission))
}

// CategoriesHandler returns the distinct permission categories in sorted order.
// GET /v1/permissions/categories
func (h *PermissionHandler) CategoriesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{Data: h.catalogUseCase.Categories()})
}

// CreateHandler registers a new permission.
// POST /v1/permissions
// Returns 201 Created. Permissions created through the API are never system
// permissions; those are seeded at install time only.
func (h *PermissionHandler) CreateHandler(c *gin.Context) {
	var req dto.CreatePermissionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	permission := &accessDomain.Permission{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}

	if err := h.catalogUseCase.AddPermission(c.Request.Context(), permission); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordMutation(c, "create", permission.ID, nil, permissionState(permission))

	c.JSON(http.StatusCreated, dto.MapPermissionToResponse(permission))
}

// UpdateHandler replaces the name, description and category of a permission.
// PUT /v1/permissions/:id
func (h *PermissionHandler) UpdateHandler(c *gin.Context) {
	id := c.Param("id")

	var req dto.UpdatePermissionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	previous, err := h.catalogUseCase.PermissionByID(id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	permission := &accessDomain.Permission{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}

	if err := h.catalogUseCase.UpdatePermission(c.Request.Context(), permission); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	updated, err := h.catalogUseCase.PermissionByID(id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordMutation(c, "update", id, permissionState(previous), permissionState(updated))

	c.JSON(http.StatusOK, dto.MapPermissionToResponse(updated))
}

// DeleteHandler removes a permission and purges it from every role.
// DELETE /v1/permissions/:id
// Returns 204 No Content.
func (h *PermissionHandler) DeleteHandler(c *gin.Context) {
	id := c.Param("id")

	previous, err := h.catalogUseCase.PermissionByID(id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	if err := h.catalogUseCase.DeletePermission(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordMutation(c, "delete", id, permissionState(previous), nil)

	c.Status(http.StatusNoContent)
}

// ValidateHandler checks a permission payload without registering it, naming
// every violation so the caller can fix them in one round trip.
// POST /v1/permissions/validate
func (h *PermissionHandler) ValidateHandler(c *gin.Context) {
	var req dto.ValidatePermissionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	permission := &accessDomain.Permission{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	}

	violations := h.catalogUseCase.ValidatePermission(permission, true)
	c.JSON(http.StatusOK, gin.H{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

// recordMutation writes a catalog mutation to the audit trail.
func (h *PermissionHandler) recordMutation(
	c *gin.Context,
	action string,
	permissionID string,
	beforeState map[string]any,
	afterState map[string]any,
) {
	input := &auditDomain.EntryInput{
		Action:       action,
		Resource:     "permission",
		ResourceID:   permissionID,
		ResourceType: "permission",
		BeforeState:  beforeState,
		AfterState:   afterState,
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

// permissionState maps a permission to an audit state snapshot.
func permissionState(permission *accessDomain.Permission) map[string]any {
	if permission == nil {
		return nil
	}
	return map[string]any{
		"id":                   permission.ID,
		"name":                 permission.Name,
		"description":          permission.Description,
		"category":             permission.Category,
		"is_system_permission": permission.IsSystemPermission,
	}
}
