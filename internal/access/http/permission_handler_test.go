package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	"github.com/allisson/compliance/internal/access/http/dto"
	accessUseCase "github.com/allisson/compliance/internal/access/usecase"
)

// newSeededCatalog builds a catalog use case backed by an in-memory store,
// preloaded with one regular and one system permission.
func newSeededCatalog(t *testing.T) accessUseCase.CatalogUseCase {
	t.Helper()

	uc := accessUseCase.NewCatalogUseCase(&memoryCatalogRepository{})
	ctx := context.Background()

	require.NoError(t, uc.AddPermission(ctx, &accessDomain.Permission{
		ID:          "view_reports",
		Name:        "View reports",
		Description: "Allows viewing reports",
		Category:    "reporting",
	}))
	require.NoError(t, uc.AddPermission(ctx, &accessDomain.Permission{
		ID:                 "manage_permissions",
		Name:               "Manage permissions",
		Description:        "Catalog administration",
		Category:           "system",
		IsSystemPermission: true,
	}))
	require.NoError(t, uc.UpdateRolePermissions(ctx, accessDomain.RoleAuditor, []string{"view_reports"}))

	return uc
}

func setupPermissionHandler(t *testing.T) (*PermissionHandler, accessUseCase.CatalogUseCase, *capturingAuditTrail) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	catalog := newSeededCatalog(t)
	auditTrail := &capturingAuditTrail{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewPermissionHandler(catalog, auditTrail, logger), catalog, auditTrail
}

func adminIdentity() *accessDomain.Identity {
	return &accessDomain.Identity{
		ID:        "u-1",
		Name:      "Dana Admin",
		Role:      accessDomain.RoleAdmin,
		SessionID: "s-1",
	}
}

func TestPermissionHandler_ListHandler(t *testing.T) {
	handler, _, _ := setupPermissionHandler(t)

	c, w := createTestContext(http.MethodGet, "/v1/permissions", nil)
	handler.ListHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListPermissionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, "view_reports", response.Data[0].ID)
	assert.Equal(t, "manage_permissions", response.Data[1].ID)
	assert.True(t, response.Data[1].IsSystemPermission)
}

func TestPermissionHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/permissions/view_reports", nil)
		c.Params = gin.Params{{Key: "id", Value: "view_reports"}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.PermissionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "View reports", response.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		c, w := createTestContext(http.MethodGet, "/v1/permissions/missing", nil)
		c.Params = gin.Params{{Key: "id", Value: "missing"}}
		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPermissionHandler_CategoriesHandler(t *testing.T) {
	handler, _, _ := setupPermissionHandler(t)

	c, w := createTestContext(http.MethodGet, "/v1/permissions/categories", nil)
	handler.CategoriesHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.CategoriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"reporting", "system"}, response.Data)
}

func TestPermissionHandler_CreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, catalog, auditTrail := setupPermissionHandler(t)

		request := dto.CreatePermissionRequest{
			ID:          "delete_documents",
			Name:        "Delete documents",
			Description: "Allows deleting documents",
			Category:    "documents",
		}
		c, w := createTestContext(http.MethodPost, "/v1/permissions", request)
		attachIdentity(c, adminIdentity())

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.PermissionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "delete_documents", response.ID)
		assert.False(t, response.IsSystemPermission)

		created, err := catalog.PermissionByID("delete_documents")
		require.NoError(t, err)
		assert.Equal(t, "Delete documents", created.Name)

		entry := auditTrail.lastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "create", entry.Action)
		assert.Equal(t, "delete_documents", entry.ResourceID)
		assert.Equal(t, "u-1", entry.UserID)
		assert.Nil(t, entry.BeforeState)
		assert.Equal(t, "delete_documents", entry.AfterState["id"])
	})

	t.Run("DuplicateID", func(t *testing.T) {
		handler, _, auditTrail := setupPermissionHandler(t)

		request := dto.CreatePermissionRequest{
			ID:          "view_reports",
			Name:        "View reports",
			Description: "Duplicate",
			Category:    "reporting",
		}
		c, w := createTestContext(http.MethodPost, "/v1/permissions", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, auditTrail.entryCount())
	})

	t.Run("InvalidIdentifier", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		request := dto.CreatePermissionRequest{
			ID:          "Not-An-Identifier",
			Name:        "Bad",
			Description: "Bad",
			Category:    "reporting",
		}
		c, w := createTestContext(http.MethodPost, "/v1/permissions", request)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/permissions", nil)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPermissionHandler_UpdateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, catalog, auditTrail := setupPermissionHandler(t)

		request := dto.UpdatePermissionRequest{
			Name:        "View all reports",
			Description: "Allows viewing every report",
			Category:    "reporting",
		}
		c, w := createTestContext(http.MethodPut, "/v1/permissions/view_reports", request)
		c.Params = gin.Params{{Key: "id", Value: "view_reports"}}
		attachIdentity(c, adminIdentity())

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		updated, err := catalog.PermissionByID("view_reports")
		require.NoError(t, err)
		assert.Equal(t, "View all reports", updated.Name)

		entry := auditTrail.lastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "update", entry.Action)
		assert.Equal(t, "View reports", entry.BeforeState["name"])
		assert.Equal(t, "View all reports", entry.AfterState["name"])
	})

	t.Run("SystemPermissionForbidden", func(t *testing.T) {
		handler, _, auditTrail := setupPermissionHandler(t)

		request := dto.UpdatePermissionRequest{
			Name:        "Renamed",
			Description: "Renamed",
			Category:    "system",
		}
		c, w := createTestContext(http.MethodPut, "/v1/permissions/manage_permissions", request)
		c.Params = gin.Params{{Key: "id", Value: "manage_permissions"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 0, auditTrail.entryCount())
	})

	t.Run("NotFound", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		request := dto.UpdatePermissionRequest{
			Name:        "Name",
			Description: "Description",
			Category:    "reporting",
		}
		c, w := createTestContext(http.MethodPut, "/v1/permissions/missing", request)
		c.Params = gin.Params{{Key: "id", Value: "missing"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPermissionHandler_DeleteHandler(t *testing.T) {
	t.Run("SuccessPurgesRoleGrants", func(t *testing.T) {
		handler, catalog, auditTrail := setupPermissionHandler(t)

		c, w := createTestContext(http.MethodDelete, "/v1/permissions/view_reports", nil)
		c.Params = gin.Params{{Key: "id", Value: "view_reports"}}
		attachIdentity(c, adminIdentity())

		handler.DeleteHandler(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)

		_, err := catalog.PermissionByID("view_reports")
		assert.Error(t, err)

		ids, err := catalog.RolePermissions(accessDomain.RoleAuditor)
		require.NoError(t, err)
		assert.Empty(t, ids)

		entry := auditTrail.lastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, "delete", entry.Action)
		assert.Equal(t, "view_reports", entry.BeforeState["id"])
		assert.Nil(t, entry.AfterState)
	})

	t.Run("SystemPermissionForbidden", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		c, w := createTestContext(http.MethodDelete, "/v1/permissions/manage_permissions", nil)
		c.Params = gin.Params{{Key: "id", Value: "manage_permissions"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPermissionHandler_ValidateHandler(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		request := dto.ValidatePermissionRequest{
			ID:          "export_data",
			Name:        "Export data",
			Description: "Allows exporting data",
			Category:    "documents",
		}
		c, w := createTestContext(http.MethodPost, "/v1/permissions/validate", request)

		handler.ValidateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Valid      bool     `json:"valid"`
			Violations []string `json:"violations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Valid)
		assert.Empty(t, response.Violations)
	})

	t.Run("DuplicateAndBlankFields", func(t *testing.T) {
		handler, _, _ := setupPermissionHandler(t)

		request := dto.ValidatePermissionRequest{
			ID: "view_reports",
		}
		c, w := createTestContext(http.MethodPost, "/v1/permissions/validate", request)

		handler.ValidateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Valid      bool     `json:"valid"`
			Violations []string `json:"violations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Valid)
		assert.NotEmpty(t, response.Violations)
	})
}
