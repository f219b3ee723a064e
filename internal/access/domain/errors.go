package domain

import (
	"github.com/allisson/compliance/internal/errors"
)

// Access-control errors.
var (
	// ErrPermissionNotFound indicates a permission with the specified ID was not found.
	ErrPermissionNotFound = errors.Wrap(errors.ErrNotFound, "permission not found")

	// ErrPermissionExists indicates a permission with the same ID already exists.
	ErrPermissionExists = errors.Wrap(errors.ErrConflict, "permission already exists")

	// ErrSystemPermission indicates an attempt to mutate or delete a system permission.
	ErrSystemPermission = errors.Wrap(errors.ErrSystemMutation, "system permission")

	// ErrSuperAdminRole indicates an attempt to edit the super_admin role's
	// implicit permission set.
	ErrSuperAdminRole = errors.Wrap(errors.ErrSystemMutation, "super_admin role is not editable")

	// ErrUnknownRole indicates a role outside the closed role set.
	ErrUnknownRole = errors.Wrap(errors.ErrInvalidInput, "unknown role")
)
