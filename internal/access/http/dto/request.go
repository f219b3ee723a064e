// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/compliance/internal/validation"
)

// CreatePermissionRequest contains the parameters for registering a permission.
type CreatePermissionRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
}

// Validate checks if the create permission request is valid.
func (r *CreatePermissionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 100),
		),
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Description,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Category,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 100),
		),
	)
}

// ValidatePermissionRequest carries a permission payload for the dry-run
// validation endpoint. No binding rules here: the catalog enumerates every
// violation itself so the caller sees all of them at once.
type ValidatePermissionRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// UpdatePermissionRequest contains the mutable fields of a permission.
// The id and system flag are taken from the URL and the stored record.
type UpdatePermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
}

// Validate checks if the update permission request is valid.
func (r *UpdatePermissionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Description,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Category,
			validation.Required,
			customValidation.Identifier,
			validation.Length(1, 100),
		),
	)
}

// UpdateRolePermissionsRequest contains the full replacement permission set
// for a role. An empty list revokes everything.
type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

// Validate checks if the update role permissions request is valid.
func (r *UpdateRolePermissionsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PermissionIDs,
			validation.Each(customValidation.Identifier),
		),
	)
}
