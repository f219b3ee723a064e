// Package usecase defines business logic interfaces for access-control operations.
package usecase

import (
	"context"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
)

// CatalogRepository defines persistence operations for the permission catalog.
// The catalog is exchanged with the store as a whole snapshot; the in-memory
// use case remains the single source of truth between snapshots.
type CatalogRepository interface {
	// Load retrieves the persisted catalog snapshot. Returns an empty catalog
	// (not an error) when nothing has been persisted yet.
	Load(ctx context.Context) (*accessDomain.Catalog, error)

	// Save persists the catalog snapshot atomically, replacing the previous one.
	Save(ctx context.Context, catalog *accessDomain.Catalog) error
}

// PermissionChecker answers whether a role holds a permission. Implemented by
// the catalog use case and consumed by the authorization guard.
type PermissionChecker interface {
	// HasPermission is unconditionally true for super_admin; otherwise true iff
	// the permission id is in the role's stored set.
	HasPermission(role accessDomain.Role, permissionID string) bool
}

// CatalogUseCase defines business logic operations for the permission catalog
// and the role→permission map.
type CatalogUseCase interface {
	PermissionChecker

	// Load replaces the in-memory state with the persisted snapshot.
	// Called once at startup and on explicit reloads.
	Load(ctx context.Context) error

	// AllPermissions returns every registered permission in insertion order.
	AllPermissions() []*accessDomain.Permission

	// PermissionByID retrieves one permission. Returns ErrPermissionNotFound
	// if absent.
	PermissionByID(id string) (*accessDomain.Permission, error)

	// AddPermission registers a new permission. Returns ErrInvalidInput with
	// every structural violation, or ErrPermissionExists on a duplicate id.
	AddPermission(ctx context.Context, permission *accessDomain.Permission) error

	// UpdatePermission replaces the name, description and category of an
	// existing permission. The id and system flag are never changed. Returns
	// ErrSystemPermission for system permissions, ErrPermissionNotFound if absent.
	UpdatePermission(ctx context.Context, permission *accessDomain.Permission) error

	// DeletePermission removes a permission and purges its id from every
	// role's permission set, leaving no dangling references. Returns
	// ErrSystemPermission for system permissions, ErrPermissionNotFound if absent.
	DeletePermission(ctx context.Context, id string) error

	// ValidatePermission returns every structural violation for the permission
	// (empty slice when valid). When forCreate is set, id uniqueness against
	// the current catalog is also checked.
	ValidatePermission(permission *accessDomain.Permission, forCreate bool) []string

	// Categories returns the distinct permission categories in sorted order.
	Categories() []string

	// RolePermissions returns the permission ids granted to a role. For
	// super_admin the full set of registered permission ids is returned, since
	// its effective set is "all, implicitly".
	RolePermissions(role accessDomain.Role) ([]string, error)

	// AllRolePermissions returns the stored role→permission map for every
	// editable role.
	AllRolePermissions() map[accessDomain.Role][]string

	// UpdateRolePermissions replaces a role's permission set wholesale.
	// Returns ErrSuperAdminRole for super_admin, ErrUnknownRole for roles
	// outside the closed set, and ErrInvalidInput naming every unknown
	// permission id.
	UpdateRolePermissions(ctx context.Context, role accessDomain.Role, permissionIDs []string) error
}
