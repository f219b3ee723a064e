package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	apperrors "github.com/allisson/compliance/internal/errors"
)

// mockCatalogRepository is a mock implementation of CatalogRepository for testing.
type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) Load(ctx context.Context) (*accessDomain.Catalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessDomain.Catalog), args.Error(1)
}

func (m *mockCatalogRepository) Save(ctx context.Context, catalog *accessDomain.Catalog) error {
	args := m.Called(ctx, catalog)
	return args.Error(0)
}

var _ CatalogRepository = (*mockCatalogRepository)(nil)

func newPermission(id string, system bool) *accessDomain.Permission {
	return &accessDomain.Permission{
		ID:                 id,
		Name:               "Permission " + id,
		Description:        "Allows " + id,
		Category:           "general",
		IsSystemPermission: system,
	}
}

// seededUseCase builds a use case preloaded with a couple of permissions and
// role grants, with the repository expecting any number of saves.
func seededUseCase(t *testing.T) (CatalogUseCase, *mockCatalogRepository) {
	t.Helper()

	mockRepo := &mockCatalogRepository{}
	mockRepo.On("Load", mock.Anything).Return(&accessDomain.Catalog{
		Permissions: []*accessDomain.Permission{
			newPermission("view_reports", false),
			newPermission("delete_documents", false),
			newPermission("manage_permissions", true),
		},
		Roles: map[accessDomain.Role][]string{
			accessDomain.RoleAuditor: {"view_reports"},
			accessDomain.RoleAdmin:   {"view_reports", "delete_documents"},
		},
	}, nil).Once()

	uc := NewCatalogUseCase(mockRepo)
	err := uc.Load(context.Background())
	assert.NoError(t, err)

	return uc, mockRepo
}

func TestCatalogUseCase_Load(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		permissions := uc.AllPermissions()
		assert.Len(t, permissions, 3)

		ids, err := uc.RolePermissions(accessDomain.RoleAuditor)
		assert.NoError(t, err)
		assert.Equal(t, []string{"view_reports"}, ids)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		t.Parallel()
		mockRepo := &mockCatalogRepository{}
		mockRepo.On("Load", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		uc := NewCatalogUseCase(mockRepo)
		err := uc.Load(ctx)

		assert.Error(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("IgnoresStoredSuperAdminGrants", func(t *testing.T) {
		t.Parallel()
		mockRepo := &mockCatalogRepository{}
		mockRepo.On("Load", mock.Anything).Return(&accessDomain.Catalog{
			Permissions: []*accessDomain.Permission{newPermission("view_reports", false)},
			Roles: map[accessDomain.Role][]string{
				accessDomain.RoleSuperAdmin: {"view_reports"},
			},
		}, nil).Once()

		uc := NewCatalogUseCase(mockRepo)
		err := uc.Load(ctx)
		assert.NoError(t, err)

		stored := uc.AllRolePermissions()
		_, hasSuperAdmin := stored[accessDomain.RoleSuperAdmin]
		assert.False(t, hasSuperAdmin)
	})
}

func TestCatalogUseCase_PermissionByID(t *testing.T) {
	t.Parallel()

	t.Run("Found", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		p, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		assert.Equal(t, "view_reports", p.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		p, err := uc.PermissionByID("missing")
		assert.Nil(t, p)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("MutatingResultDoesNotLeakIntoCatalog", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		p, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		p.Name = "tampered"

		fresh, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		assert.NotEqual(t, "tampered", fresh.Name)
	})
}

func TestCatalogUseCase_AddPermission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		err := uc.AddPermission(ctx, newPermission("export_data", false))
		assert.NoError(t, err)

		p, err := uc.PermissionByID("export_data")
		assert.NoError(t, err)
		assert.Equal(t, "export_data", p.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.AddPermission(ctx, newPermission("view_reports", false))
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		p := &accessDomain.Permission{ID: "blank_fields"}
		err := uc.AddPermission(ctx, p)

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "name must not be blank")
		assert.Contains(t, err.Error(), "description must not be blank")
		assert.Contains(t, err.Error(), "category must not be blank")
	})

	t.Run("SaveFailureRollsBack", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).
			Return(apperrors.ErrStorageUnavailable).
			Once()

		err := uc.AddPermission(ctx, newPermission("export_data", false))
		assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

		_, err = uc.PermissionByID("export_data")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCatalogUseCase_UpdatePermission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		updated := newPermission("view_reports", false)
		updated.Name = "View all reports"
		updated.Category = "reporting"

		err := uc.UpdatePermission(ctx, updated)
		assert.NoError(t, err)

		p, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		assert.Equal(t, "View all reports", p.Name)
		assert.Equal(t, "reporting", p.Category)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.UpdatePermission(ctx, newPermission("missing", false))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("SystemPermission", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.UpdatePermission(ctx, newPermission("manage_permissions", true))
		assert.ErrorIs(t, err, apperrors.ErrSystemMutation)
	})

	t.Run("SaveFailureRollsBack", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).
			Return(apperrors.ErrStorageUnavailable).
			Once()

		updated := newPermission("view_reports", false)
		updated.Name = "tampered"

		err := uc.UpdatePermission(ctx, updated)
		assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

		p, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		assert.Equal(t, "Permission view_reports", p.Name)
	})
}

func TestCatalogUseCase_DeletePermission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SuccessCascadesToRoles", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		err := uc.DeletePermission(ctx, "view_reports")
		assert.NoError(t, err)

		_, err = uc.PermissionByID("view_reports")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		// No role keeps a reference to the removed permission.
		for role, ids := range uc.AllRolePermissions() {
			assert.NotContains(t, ids, "view_reports", "role %s", role)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.DeletePermission(ctx, "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("SystemPermission", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.DeletePermission(ctx, "manage_permissions")
		assert.ErrorIs(t, err, apperrors.ErrSystemMutation)
	})

	t.Run("SaveFailureRollsBack", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).
			Return(apperrors.ErrStorageUnavailable).
			Once()

		err := uc.DeletePermission(ctx, "view_reports")
		assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

		p, err := uc.PermissionByID("view_reports")
		assert.NoError(t, err)
		assert.Equal(t, "view_reports", p.ID)

		ids, err := uc.RolePermissions(accessDomain.RoleAuditor)
		assert.NoError(t, err)
		assert.Contains(t, ids, "view_reports")
	})
}

func TestCatalogUseCase_ValidatePermission(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		violations := uc.ValidatePermission(newPermission("export_data", false), true)
		assert.Empty(t, violations)
	})

	t.Run("ReportsEveryViolation", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		violations := uc.ValidatePermission(&accessDomain.Permission{}, false)
		assert.Len(t, violations, 4)
	})

	t.Run("DuplicateOnlyCheckedForCreate", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		assert.Empty(t, uc.ValidatePermission(newPermission("view_reports", false), false))
		assert.Len(t, uc.ValidatePermission(newPermission("view_reports", false), true), 1)
	})

	t.Run("NilPermission", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		violations := uc.ValidatePermission(nil, true)
		assert.Equal(t, []string{"permission must not be nil"}, violations)
	})
}

func TestCatalogUseCase_Categories(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	uc, mockRepo := seededUseCase(t)
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	reporting := newPermission("export_data", false)
	reporting.Category = "reporting"
	err := uc.AddPermission(ctx, reporting)
	assert.NoError(t, err)

	assert.Equal(t, []string{"general", "reporting"}, uc.Categories())
}

func TestCatalogUseCase_RolePermissions(t *testing.T) {
	t.Parallel()

	t.Run("StoredRole", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		ids, err := uc.RolePermissions(accessDomain.RoleAdmin)
		assert.NoError(t, err)
		assert.Equal(t, []string{"delete_documents", "view_reports"}, ids)
	})

	t.Run("SuperAdminSeesEverything", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		ids, err := uc.RolePermissions(accessDomain.RoleSuperAdmin)
		assert.NoError(t, err)
		assert.Equal(t, []string{"delete_documents", "manage_permissions", "view_reports"}, ids)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		ids, err := uc.RolePermissions(accessDomain.Role("intern"))
		assert.Nil(t, ids)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestCatalogUseCase_UpdateRolePermissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ReplacesWholesale", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		err := uc.UpdateRolePermissions(ctx, accessDomain.RoleAdmin, []string{"view_reports"})
		assert.NoError(t, err)

		ids, err := uc.RolePermissions(accessDomain.RoleAdmin)
		assert.NoError(t, err)
		assert.Equal(t, []string{"view_reports"}, ids)
	})

	t.Run("EmptySetRevokesEverything", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

		err := uc.UpdateRolePermissions(ctx, accessDomain.RoleAdmin, nil)
		assert.NoError(t, err)

		ids, err := uc.RolePermissions(accessDomain.RoleAdmin)
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("SuperAdminIsNotEditable", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.UpdateRolePermissions(ctx, accessDomain.RoleSuperAdmin, []string{"view_reports"})
		assert.ErrorIs(t, err, apperrors.ErrSystemMutation)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.UpdateRolePermissions(ctx, accessDomain.Role("intern"), []string{"view_reports"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("UnknownPermissionIDsAreAllNamed", func(t *testing.T) {
		t.Parallel()
		uc, _ := seededUseCase(t)

		err := uc.UpdateRolePermissions(
			ctx,
			accessDomain.RoleAdmin,
			[]string{"view_reports", "zz_missing", "aa_missing"},
		)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "aa_missing, zz_missing")
	})

	t.Run("SaveFailureRollsBack", func(t *testing.T) {
		t.Parallel()
		uc, mockRepo := seededUseCase(t)
		mockRepo.On("Save", mock.Anything, mock.Anything).
			Return(apperrors.ErrStorageUnavailable).
			Once()

		err := uc.UpdateRolePermissions(ctx, accessDomain.RoleAdmin, []string{"view_reports"})
		assert.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

		ids, err := uc.RolePermissions(accessDomain.RoleAdmin)
		assert.NoError(t, err)
		assert.Equal(t, []string{"delete_documents", "view_reports"}, ids)
	})
}

func TestCatalogUseCase_HasPermission(t *testing.T) {
	t.Parallel()
	uc, _ := seededUseCase(t)

	tests := []struct {
		name         string
		role         accessDomain.Role
		permissionID string
		want         bool
	}{
		{"GrantedPermission", accessDomain.RoleAuditor, "view_reports", true},
		{"UngrantedPermission", accessDomain.RoleAuditor, "delete_documents", false},
		{"SuperAdminAlwaysAllowed", accessDomain.RoleSuperAdmin, "delete_documents", true},
		{"SuperAdminEvenForUnregisteredID", accessDomain.RoleSuperAdmin, "does_not_exist", true},
		{"UnknownRole", accessDomain.Role("intern"), "view_reports", false},
		{"RoleWithoutGrants", accessDomain.RoleClient, "view_reports", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, uc.HasPermission(tt.role, tt.permissionID))
		})
	}
}
