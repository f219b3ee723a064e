// Package domain defines the access-control domain models: permissions, the
// closed role set, and the role→permission catalog.
package domain

import (
	"sort"
)

// Role is one of a fixed, closed set of actor categories.
type Role string

const (
	// RoleSuperAdmin implicitly holds every permission. Its permission set is
	// never stored and never editable.
	RoleSuperAdmin Role = "super_admin"

	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAuditor Role = "auditor"
	RoleClient  Role = "client"
)

// EditableRoles lists the roles whose permission sets can be managed through
// the catalog. RoleSuperAdmin is deliberately absent.
var EditableRoles = []Role{RoleAdmin, RoleManager, RoleAuditor, RoleClient}

// IsValid reports whether the role belongs to the closed role set.
func (r Role) IsValid() bool {
	if r == RoleSuperAdmin {
		return true
	}
	for _, role := range EditableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Permission is a named, catalog-registered capability.
type Permission struct {
	ID                 string
	Name               string
	Description        string
	Category           string
	IsSystemPermission bool
}

// Clone returns a copy of the permission.
func (p *Permission) Clone() *Permission {
	clone := *p
	return &clone
}

// Catalog is a snapshot of the permission list and the role→permission map,
// as exchanged with the durable store.
type Catalog struct {
	Permissions []*Permission
	Roles       map[Role][]string
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		Permissions: make([]*Permission, 0, len(c.Permissions)),
		Roles:       make(map[Role][]string, len(c.Roles)),
	}
	for _, p := range c.Permissions {
		clone.Permissions = append(clone.Permissions, p.Clone())
	}
	for role, ids := range c.Roles {
		clone.Roles[role] = append([]string(nil), ids...)
	}
	return clone
}

// SortedPermissionIDs returns the ids of a role's permission set in stable order.
func SortedPermissionIDs(ids []string) []string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return sorted
}
