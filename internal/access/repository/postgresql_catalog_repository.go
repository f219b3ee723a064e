// Package repository implements permission catalog persistence for PostgreSQL
// and MySQL. The catalog is small and changes rarely, so it is exchanged with
// the store as a whole snapshot inside one transaction.
package repository

import (
	"context"
	"database/sql"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	"github.com/allisson/compliance/internal/database"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// PostgreSQLCatalogRepository implements catalog persistence for PostgreSQL.
type PostgreSQLCatalogRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewPostgreSQLCatalogRepository creates a new PostgreSQL catalog repository.
func NewPostgreSQLCatalogRepository(db *sql.DB, txManager database.TxManager) *PostgreSQLCatalogRepository {
	return &PostgreSQLCatalogRepository{db: db, txManager: txManager}
}

// Load retrieves the persisted catalog. An empty store yields an empty
// catalog, not an error.
func (p *PostgreSQLCatalogRepository) Load(ctx context.Context) (*accessDomain.Catalog, error) {
	querier := database.GetTx(ctx, p.db)

	catalog := &accessDomain.Catalog{
		Permissions: make([]*accessDomain.Permission, 0),
		Roles:       make(map[accessDomain.Role][]string),
	}

	rows, err := querier.QueryContext(
		ctx,
		`SELECT id, name, description, category, is_system_permission
		 FROM permissions ORDER BY position`,
	)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to load permissions")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var permission accessDomain.Permission
		err := rows.Scan(
			&permission.ID,
			&permission.Name,
			&permission.Description,
			&permission.Category,
			&permission.IsSystemPermission,
		)
		if err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan permission")
		}
		catalog.Permissions = append(catalog.Permissions, &permission)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate permissions")
	}

	roleRows, err := querier.QueryContext(
		ctx,
		"SELECT role, permission_id FROM role_permissions ORDER BY role, permission_id",
	)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to load role permissions")
	}
	defer func() {
		_ = roleRows.Close()
	}()

	for roleRows.Next() {
		var role, permissionID string
		if err := roleRows.Scan(&role, &permissionID); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan role permission")
		}
		r := accessDomain.Role(role)
		catalog.Roles[r] = append(catalog.Roles[r], permissionID)
	}
	if err := roleRows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate role permissions")
	}

	return catalog, nil
}

// Save replaces the persisted catalog with the given snapshot in one
// transaction, so readers never observe a half-written catalog.
func (p *PostgreSQLCatalogRepository) Save(ctx context.Context, catalog *accessDomain.Catalog) error {
	return p.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, p.db)

		if _, err := querier.ExecContext(ctx, "DELETE FROM role_permissions"); err != nil {
			return apperrors.WrapStorage(err, "failed to clear role permissions")
		}
		if _, err := querier.ExecContext(ctx, "DELETE FROM permissions"); err != nil {
			return apperrors.WrapStorage(err, "failed to clear permissions")
		}

		for position, permission := range catalog.Permissions {
			_, err := querier.ExecContext(
				ctx,
				`INSERT INTO permissions (id, name, description, category, is_system_permission, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				permission.ID,
				permission.Name,
				permission.Description,
				permission.Category,
				permission.IsSystemPermission,
				position,
			)
			if err != nil {
				return apperrors.WrapStorage(err, "failed to save permission")
			}
		}

		for role, permissionIDs := range catalog.Roles {
			for _, permissionID := range permissionIDs {
				_, err := querier.ExecContext(
					ctx,
					"INSERT INTO role_permissions (role, permission_id) VALUES ($1, $2)",
					string(role),
					permissionID,
				)
				if err != nil {
					return apperrors.WrapStorage(err, "failed to save role permission")
				}
			}
		}

		return nil
	})
}
