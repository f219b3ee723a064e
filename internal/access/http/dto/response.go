package dto

import (
	accessDomain "github.com/allisson/compliance/internal/access/domain"
)

// PermissionResponse represents a permission in API responses.
type PermissionResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	IsSystemPermission bool   `json:"is_system_permission"`
}

// MapPermissionToResponse converts a domain permission to an API response.
func MapPermissionToResponse(permission *accessDomain.Permission) PermissionResponse {
	return PermissionResponse{
		ID:                 permission.ID,
		Name:               permission.Name,
		Description:        permission.Description,
		Category:           permission.Category,
		IsSystemPermission: permission.IsSystemPermission,
	}
}

// ListPermissionsResponse represents the full permission catalog in API responses.
type ListPermissionsResponse struct {
	Data []PermissionResponse `json:"data"`
}

// MapPermissionsToListResponse converts domain permissions to a list response.
func MapPermissionsToListResponse(permissions []*accessDomain.Permission) ListPermissionsResponse {
	data := make([]PermissionResponse, 0, len(permissions))
	for _, permission := range permissions {
		data = append(data, MapPermissionToResponse(permission))
	}

	return ListPermissionsResponse{
		Data: data,
	}
}

// CategoriesResponse represents the distinct permission categories.
type CategoriesResponse struct {
	Data []string `json:"data"`
}

// RolePermissionsResponse represents one role's permission set.
type RolePermissionsResponse struct {
	Role          string   `json:"role"`
	PermissionIDs []string `json:"permission_ids"`
}

// ListRolesResponse represents every editable role with its permission set.
type ListRolesResponse struct {
	Data []RolePermissionsResponse `json:"data"`
}

// MapRolesToListResponse converts the stored role→permission map to a list
// response in the editable-role declaration order.
func MapRolesToListResponse(rolePermissions map[accessDomain.Role][]string) ListRolesResponse {
	data := make([]RolePermissionsResponse, 0, len(rolePermissions))
	for _, role := range accessDomain.EditableRoles {
		ids, ok := rolePermissions[role]
		if !ok {
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		data = append(data, RolePermissionsResponse{
			Role:          string(role),
			PermissionIDs: ids,
		})
	}

	return ListRolesResponse{
		Data: data,
	}
}
