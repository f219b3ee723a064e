// Package usecase implements business logic orchestration for access-control operations.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// catalogUseCase holds the permission catalog as process-wide shared state.
// A RWMutex serializes mutations while keeping reads concurrent; every
// successful mutation is persisted as a whole snapshot before it becomes
// visible, so a failed Save never leaves memory and store diverged.
type catalogUseCase struct {
	mu          sync.RWMutex
	permissions []*accessDomain.Permission
	byID        map[string]*accessDomain.Permission
	roles       map[accessDomain.Role]map[string]bool

	catalogRepo CatalogRepository
}

// NewCatalogUseCase creates a new CatalogUseCase with the provided repository.
// The catalog starts empty; call Load to populate it from the store.
func NewCatalogUseCase(catalogRepo CatalogRepository) CatalogUseCase {
	uc := &catalogUseCase{
		byID:        make(map[string]*accessDomain.Permission),
		roles:       make(map[accessDomain.Role]map[string]bool),
		catalogRepo: catalogRepo,
	}
	for _, role := range accessDomain.EditableRoles {
		uc.roles[role] = make(map[string]bool)
	}
	return uc
}

// Load replaces the in-memory state with the persisted snapshot.
func (c *catalogUseCase) Load(ctx context.Context) error {
	catalog, err := c.catalogRepo.Load(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to load permission catalog")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.permissions = nil
	c.byID = make(map[string]*accessDomain.Permission)
	for _, p := range catalog.Permissions {
		clone := p.Clone()
		c.permissions = append(c.permissions, clone)
		c.byID[clone.ID] = clone
	}

	c.roles = make(map[accessDomain.Role]map[string]bool)
	for _, role := range accessDomain.EditableRoles {
		c.roles[role] = make(map[string]bool)
	}
	for role, ids := range catalog.Roles {
		// The super_admin set is implicit and anything stored for it is ignored.
		if role == accessDomain.RoleSuperAdmin || !role.IsValid() {
			continue
		}
		for _, id := range ids {
			if _, ok := c.byID[id]; ok {
				c.roles[role][id] = true
			}
		}
	}

	return nil
}

// AllPermissions returns every registered permission in insertion order.
func (c *catalogUseCase) AllPermissions() []*accessDomain.Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()

	permissions := make([]*accessDomain.Permission, 0, len(c.permissions))
	for _, p := range c.permissions {
		permissions = append(permissions, p.Clone())
	}
	return permissions
}

// PermissionByID retrieves one permission by id.
func (c *catalogUseCase) PermissionByID(id string) (*accessDomain.Permission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return nil, accessDomain.ErrPermissionNotFound
	}
	return p.Clone(), nil
}

// AddPermission registers a new permission after structural validation.
func (c *catalogUseCase) AddPermission(ctx context.Context, permission *accessDomain.Permission) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if violations := c.validateStructure(permission); len(violations) > 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, strings.Join(violations, "; "))
	}
	if _, ok := c.byID[permission.ID]; ok {
		return apperrors.Wrapf(accessDomain.ErrPermissionExists, "permission %q", permission.ID)
	}

	clone := permission.Clone()
	c.permissions = append(c.permissions, clone)
	c.byID[clone.ID] = clone

	if err := c.persistLocked(ctx); err != nil {
		// Roll the insertion back so memory and store stay consistent.
		c.permissions = c.permissions[:len(c.permissions)-1]
		delete(c.byID, clone.ID)
		return err
	}

	return nil
}

// UpdatePermission replaces the mutable fields of an existing permission.
func (c *catalogUseCase) UpdatePermission(ctx context.Context, permission *accessDomain.Permission) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.byID[permission.ID]
	if !ok {
		return apperrors.Wrapf(accessDomain.ErrPermissionNotFound, "permission %q", permission.ID)
	}
	if existing.IsSystemPermission {
		return apperrors.Wrapf(accessDomain.ErrSystemPermission, "permission %q", permission.ID)
	}

	if violations := c.validateStructure(permission); len(violations) > 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, strings.Join(violations, "; "))
	}

	previous := existing.Clone()
	existing.Name = permission.Name
	existing.Description = permission.Description
	existing.Category = permission.Category

	if err := c.persistLocked(ctx); err != nil {
		existing.Name = previous.Name
		existing.Description = previous.Description
		existing.Category = previous.Category
		return err
	}

	return nil
}

// DeletePermission removes a permission and purges its id from every role set.
func (c *catalogUseCase) DeletePermission(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.byID[id]
	if !ok {
		return apperrors.Wrapf(accessDomain.ErrPermissionNotFound, "permission %q", id)
	}
	if existing.IsSystemPermission {
		return apperrors.Wrapf(accessDomain.ErrSystemPermission, "permission %q", id)
	}

	previousPermissions := c.permissions
	previousRoles := c.cloneRolesLocked()

	permissions := make([]*accessDomain.Permission, 0, len(c.permissions)-1)
	for _, p := range c.permissions {
		if p.ID != id {
			permissions = append(permissions, p)
		}
	}
	c.permissions = permissions
	delete(c.byID, id)

	// Core integrity invariant: no role may keep a dangling reference.
	for _, ids := range c.roles {
		delete(ids, id)
	}

	if err := c.persistLocked(ctx); err != nil {
		c.permissions = previousPermissions
		c.byID[id] = existing
		c.roles = previousRoles
		return err
	}

	return nil
}

// ValidatePermission returns every structural violation for the permission.
func (c *catalogUseCase) ValidatePermission(permission *accessDomain.Permission, forCreate bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	violations := c.validateStructure(permission)
	if forCreate && permission != nil {
		if _, ok := c.byID[permission.ID]; ok {
			violations = append(violations, fmt.Sprintf("id %q is already registered", permission.ID))
		}
	}
	return violations
}

// Categories returns the distinct permission categories in sorted order.
func (c *catalogUseCase) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range c.permissions {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// RolePermissions returns the permission ids granted to a role.
func (c *catalogUseCase) RolePermissions(role accessDomain.Role) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// super_admin holds every permission implicitly; nothing is stored for it.
	if role == accessDomain.RoleSuperAdmin {
		ids := make([]string, 0, len(c.permissions))
		for _, p := range c.permissions {
			ids = append(ids, p.ID)
		}
		return accessDomain.SortedPermissionIDs(ids), nil
	}

	ids, ok := c.roles[role]
	if !ok {
		return nil, apperrors.Wrapf(accessDomain.ErrUnknownRole, "role %q", role)
	}

	result := make([]string, 0, len(ids))
	for id := range ids {
		result = append(result, id)
	}
	return accessDomain.SortedPermissionIDs(result), nil
}

// AllRolePermissions returns the stored map for every editable role.
func (c *catalogUseCase) AllRolePermissions() map[accessDomain.Role][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[accessDomain.Role][]string, len(c.roles))
	for role, ids := range c.roles {
		sorted := make([]string, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		result[role] = accessDomain.SortedPermissionIDs(sorted)
	}
	return result
}

// UpdateRolePermissions replaces a role's permission set wholesale.
func (c *catalogUseCase) UpdateRolePermissions(
	ctx context.Context,
	role accessDomain.Role,
	permissionIDs []string,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if role == accessDomain.RoleSuperAdmin {
		return accessDomain.ErrSuperAdminRole
	}
	if _, ok := c.roles[role]; !ok {
		return apperrors.Wrapf(accessDomain.ErrUnknownRole, "role %q", role)
	}

	var unknown []string
	for _, id := range permissionIDs {
		if _, ok := c.byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return apperrors.Wrapf(
			apperrors.ErrInvalidInput,
			"unknown permission ids: %s",
			strings.Join(unknown, ", "),
		)
	}

	previous := c.roles[role]

	next := make(map[string]bool, len(permissionIDs))
	for _, id := range permissionIDs {
		next[id] = true
	}
	c.roles[role] = next

	if err := c.persistLocked(ctx); err != nil {
		c.roles[role] = previous
		return err
	}

	return nil
}

// HasPermission is unconditionally true for super_admin; otherwise true iff
// the permission id is in the role's stored set. The super_admin bypass does
// not check that the permission id exists in the catalog.
func (c *catalogUseCase) HasPermission(role accessDomain.Role, permissionID string) bool {
	if role == accessDomain.RoleSuperAdmin {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids, ok := c.roles[role]
	if !ok {
		return false
	}
	return ids[permissionID]
}

// validateStructure checks the required fields. Caller must hold at least a
// read lock.
func (c *catalogUseCase) validateStructure(permission *accessDomain.Permission) []string {
	if permission == nil {
		return []string{"permission must not be nil"}
	}

	var violations []string
	if strings.TrimSpace(permission.ID) == "" {
		violations = append(violations, "id must not be blank")
	}
	if strings.TrimSpace(permission.Name) == "" {
		violations = append(violations, "name must not be blank")
	}
	if strings.TrimSpace(permission.Description) == "" {
		violations = append(violations, "description must not be blank")
	}
	if strings.TrimSpace(permission.Category) == "" {
		violations = append(violations, "category must not be blank")
	}
	return violations
}

// persistLocked saves the current in-memory snapshot. Caller must hold the
// write lock.
func (c *catalogUseCase) persistLocked(ctx context.Context) error {
	snapshot := &accessDomain.Catalog{
		Permissions: make([]*accessDomain.Permission, 0, len(c.permissions)),
		Roles:       make(map[accessDomain.Role][]string, len(c.roles)),
	}
	for _, p := range c.permissions {
		snapshot.Permissions = append(snapshot.Permissions, p.Clone())
	}
	for role, ids := range c.roles {
		sorted := make([]string, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		snapshot.Roles[role] = accessDomain.SortedPermissionIDs(sorted)
	}

	if err := c.catalogRepo.Save(ctx, snapshot); err != nil {
		return apperrors.Wrap(err, "failed to persist permission catalog")
	}
	return nil
}

// cloneRolesLocked deep-copies the role map for rollback. Caller must hold
// the write lock.
func (c *catalogUseCase) cloneRolesLocked() map[accessDomain.Role]map[string]bool {
	clone := make(map[accessDomain.Role]map[string]bool, len(c.roles))
	for role, ids := range c.roles {
		set := make(map[string]bool, len(ids))
		for id := range ids {
			set[id] = true
		}
		clone[role] = set
	}
	return clone
}
