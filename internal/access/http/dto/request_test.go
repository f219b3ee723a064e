package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatePermissionRequest_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req := CreatePermissionRequest{
			ID:          "delete_documents",
			Name:        "Delete documents",
			Description: "Allows deleting documents",
			Category:    "documents",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("IDMustBeIdentifier", func(t *testing.T) {
		req := CreatePermissionRequest{
			ID:          "Delete-Documents",
			Name:        "Delete documents",
			Description: "Allows deleting documents",
			Category:    "documents",
		}
		assert.Error(t, req.Validate())
	})

	t.Run("BlankNameRejected", func(t *testing.T) {
		req := CreatePermissionRequest{
			ID:          "delete_documents",
			Name:        "   ",
			Description: "Allows deleting documents",
			Category:    "documents",
		}
		assert.Error(t, req.Validate())
	})

	t.Run("MissingFields", func(t *testing.T) {
		req := CreatePermissionRequest{}
		err := req.Validate()
		assert.Error(t, err)
	})
}

func TestUpdatePermissionRequest_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		req := UpdatePermissionRequest{
			Name:        "View reports",
			Description: "Allows viewing reports",
			Category:    "reporting",
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("CategoryMustBeIdentifier", func(t *testing.T) {
		req := UpdatePermissionRequest{
			Name:        "View reports",
			Description: "Allows viewing reports",
			Category:    "Reporting Stuff",
		}
		assert.Error(t, req.Validate())
	})
}

func TestUpdateRolePermissionsRequest_Validate(t *testing.T) {
	t.Run("EmptyListIsValid", func(t *testing.T) {
		req := UpdateRolePermissionsRequest{PermissionIDs: []string{}}
		assert.NoError(t, req.Validate())
	})

	t.Run("ValidIdentifiers", func(t *testing.T) {
		req := UpdateRolePermissionsRequest{
			PermissionIDs: []string{"view_reports", "delete_documents"},
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("RejectsNonIdentifiers", func(t *testing.T) {
		req := UpdateRolePermissionsRequest{
			PermissionIDs: []string{"view_reports", "Not Valid"},
		}
		assert.Error(t, req.Validate())
	})
}
