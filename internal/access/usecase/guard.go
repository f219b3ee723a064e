package usecase

import (
	"net/http"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
)

// Authorization denial codes.
const (
	DenyUnauthenticated        = "unauthenticated"
	DenyInsufficientPermission = "insufficient_permission"
)

// Authorize evaluates a requirement against the caller's identity. It is a
// pure decision function: no I/O, no mutation, same inputs same output.
//
// A nil identity denies with 401. When the requirement allows super_admin and
// the caller holds that role, the permission check is skipped. Otherwise every
// required permission must be held; the first missing one denies with 403.
func Authorize(
	identity *accessDomain.Identity,
	requirement accessDomain.Requirement,
	checker PermissionChecker,
) accessDomain.Decision {
	if identity == nil {
		return accessDomain.Deny(DenyUnauthenticated, http.StatusUnauthorized)
	}

	if requirement.AllowSuperAdmin && identity.Role == accessDomain.RoleSuperAdmin {
		return accessDomain.Allow(identity)
	}

	for _, permissionID := range requirement.RequiredPermissions {
		if !checker.HasPermission(identity.Role, permissionID) {
			return accessDomain.Deny(DenyInsufficientPermission, http.StatusForbidden)
		}
	}

	return accessDomain.Allow(identity)
}
