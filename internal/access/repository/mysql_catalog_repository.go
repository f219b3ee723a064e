package repository

import (
	"context"
	"database/sql"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	"github.com/allisson/compliance/internal/database"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// MySQLCatalogRepository implements catalog persistence for MySQL.
type MySQLCatalogRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLCatalogRepository creates a new MySQL catalog repository.
func NewMySQLCatalogRepository(db *sql.DB, txManager database.TxManager) *MySQLCatalogRepository {
	return &MySQLCatalogRepository{db: db, txManager: txManager}
}

// Load retrieves the persisted catalog. An empty store yields an empty
// catalog, not an error.
func (m *MySQLCatalogRepository) Load(ctx context.Context) (*accessDomain.Catalog, error) {
	querier := database.GetTx(ctx, m.db)

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
// transaction.
func (m *MySQLCatalogRepository) Save(ctx context.Context, catalog *accessDomain.Catalog) error {
	return m.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, m.db)

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
				 VALUES (?, ?, ?, ?, ?, ?)`,
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
					"INSERT INTO role_permissions (role, permission_id) VALUES (?, ?)",
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
