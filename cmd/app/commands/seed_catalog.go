package commands

import (
	"context"
	"fmt"
	"log/slog"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	"github.com/allisson/compliance/internal/app"
	"github.com/allisson/compliance/internal/config"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// systemPermissions are the seeded permissions guarding the management
// surface. They are granted to no role by default, so out of the box only
// super_admin can manage the catalog.
var systemPermissions = []*accessDomain.Permission{
	{
		ID:                 "manage_permissions",
		Name:               "Manage permissions",
		Description:        "Create, update and delete permission catalog entries",
		Category:           "system",
		IsSystemPermission: true,
	},
	{
		ID:                 "manage_roles",
		Name:               "Manage roles",
		Description:        "Replace role permission assignments",
		Category:           "system",
		IsSystemPermission: true,
	},
}

// defaultPermissions are regular catalog entries seeded for a usable
// out-of-the-box install. They stay fully editable.
var defaultPermissions = []*accessDomain.Permission{
	{
		ID:          "view_audit_trail",
		Name:        "View audit trail",
		Description: "Query audit entries and aggregate statistics",
		Category:    "audit",
	},
}

// defaultGrants assigns seeded permissions to roles. Existing grants are
// preserved; seeding only adds what is missing.
var defaultGrants = map[accessDomain.Role][]string{
	accessDomain.RoleAdmin:   {"view_audit_trail"},
	accessDomain.RoleAuditor: {"view_audit_trail"},
}

// RunSeedCatalog registers the seeded permissions and default role grants.
// Idempotent: permissions that already exist are left untouched.
func RunSeedCatalog(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("seeding permission catalog")

	defer closeContainer(container, logger)

	catalogUseCase, err := container.CatalogUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize catalog use case: %w", err)
	}

	seeded := 0
	for _, permission := range append(systemPermissions, defaultPermissions...) {
		if _, err := catalogUseCase.PermissionByID(permission.ID); err == nil {
			continue
		} else if !apperrors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to look up permission %q: %w", permission.ID, err)
		}

		if err := catalogUseCase.AddPermission(ctx, permission.Clone()); err != nil {
			return fmt.Errorf("failed to seed permission %q: %w", permission.ID, err)
		}
		logger.Info("permission seeded", slog.String("permission_id", permission.ID))
		seeded++
	}

	for role, permissionIDs := range defaultGrants {
		current, err := catalogUseCase.RolePermissions(role)
		if err != nil {
			return fmt.Errorf("failed to read permissions for role %q: %w", role, err)
		}

		granted := make(map[string]bool, len(current))
		for _, id := range current {
			granted[id] = true
		}

		missing := false
		for _, id := range permissionIDs {
			if !granted[id] {
				current = append(current, id)
				missing = true
			}
		}
		if !missing {
			continue
		}

		if err := catalogUseCase.UpdateRolePermissions(ctx, role, current); err != nil {
			return fmt.Errorf("failed to grant permissions to role %q: %w", role, err)
		}
		logger.Info("role grants updated", slog.String("role", string(role)))
	}

	logger.Info("catalog seeding completed", slog.Int("permissions_seeded", seeded))
	return nil
}
