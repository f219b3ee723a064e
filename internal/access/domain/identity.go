package domain

import (
	"net/http"
)

// Identity is the already-authenticated acting principal, supplied per request
// by the host application's identity provider. This core never mutates it.
type Identity struct {
	ID        string
	Name      string
	Role      Role
	SessionID string
}

// Requirement describes what a protected operation demands from the caller.
type Requirement struct {
	// RequiredPermissions must all be held by the caller's role.
	RequiredPermissions []string
	// AllowSuperAdmin short-circuits the permission check for RoleSuperAdmin.
	AllowSuperAdmin bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	Code       string
	StatusCode int
	Identity   *Identity
}

// Allow builds an allowing decision for the given identity.
func Allow(identity *Identity) Decision {
	return Decision{Allowed: true, StatusCode: http.StatusOK, Identity: identity}
}

// Deny builds a denying decision with a stable code and HTTP status.
func Deny(code string, statusCode int) Decision {
	return Decision{Allowed: false, Code: code, StatusCode: statusCode}
}
