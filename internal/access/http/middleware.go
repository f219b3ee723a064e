package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	accessUseCase "github.com/allisson/compliance/internal/access/usecase"
	auditDomain "github.com/allisson/compliance/internal/audit/domain"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
	apperrors "github.com/allisson/compliance/internal/errors"
	"github.com/allisson/compliance/internal/httputil"
)

// IdentityProvider resolves the already-authenticated acting identity for a
// request. Authentication itself happens outside this core; the provider only
// surfaces its result. Returning (nil, nil) means an anonymous request.
type IdentityProvider interface {
	IdentityFromRequest(c *gin.Context) (*accessDomain.Identity, error)
}

// Trusted identity headers, expected to be set by the fronting gateway after
// it has authenticated the caller.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserName  = "X-User-Name"
	HeaderUserRole  = "X-User-Role"
	HeaderSessionID = "X-Session-Id"
)

// HeaderIdentityProvider reads the acting identity from trusted gateway
// headers. A request without X-User-Id is anonymous, not an error.
type HeaderIdentityProvider struct{}

// NewHeaderIdentityProvider creates the default header-based identity provider.
func NewHeaderIdentityProvider() *HeaderIdentityProvider {
	return &HeaderIdentityProvider{}
}

// IdentityFromRequest builds an identity from the trusted headers. A present
// user id with a role outside the closed role set is rejected rather than
// silently downgraded.
func (p *HeaderIdentityProvider) IdentityFromRequest(c *gin.Context) (*accessDomain.Identity, error) {
	userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
	if userID == "" {
		return nil, nil
	}

	role := accessDomain.Role(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
	if !role.IsValid() {
		return nil, apperrors.Wrapf(apperrors.ErrUnauthorized, "unknown role %q", string(role))
	}

	return &accessDomain.Identity{
		ID:        userID,
		Name:      strings.TrimSpace(c.GetHeader(HeaderUserName)),
		Role:      role,
		SessionID: strings.TrimSpace(c.GetHeader(HeaderSessionID)),
	}, nil
}

// IdentityMiddleware resolves the acting identity and stores it in the request
// context. Anonymous requests pass through without an identity; the
// authorization guard decides whether that is acceptable per route.
func IdentityMiddleware(provider IdentityProvider, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := provider.IdentityFromRequest(c)
		if err != nil {
			logger.Debug("identity resolution failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		if identity != nil {
			ctx := WithIdentity(c.Request.Context(), identity)
			c.Request = c.Request.WithContext(ctx)

			logger.Debug("identity resolved",
				slog.String("user_id", identity.ID),
				slog.String("role", string(identity.Role)))
		}

		c.Next()
	}
}

// RequirePermissions guards a route with an authorization requirement.
//
// MUST be used after IdentityMiddleware. The decision is made by the pure
// authorization check against the permission catalog; denials are recorded in
// the audit trail before the error response is written.
//
// Error handling:
//   - No identity in context → 401 Unauthorized
//   - Role lacks a required permission → 403 Forbidden
func RequirePermissions(
	requirement accessDomain.Requirement,
	checker accessUseCase.PermissionChecker,
	auditTrailUseCase auditUseCase.AuditTrailUseCase,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := GetIdentity(c.Request.Context())

		decision := accessUseCase.Authorize(identity, requirement, checker)
		if decision.Allowed {
			c.Next()
			return
		}

		logger.Debug("authorization denied",
			slog.String("code", decision.Code),
			slog.String("path", c.Request.URL.Path),
			slog.Any("required_permissions", requirement.RequiredPermissions))

		recordDenial(c, identity, decision, requirement, auditTrailUseCase)

		switch decision.Code {
		case accessUseCase.DenyUnauthenticated:
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		default:
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
		}
		c.Abort()
	}
}

// recordDenial writes a denied-access entry to the audit trail. Denials are
// compliance-relevant regardless of the route they were attempted on.
func recordDenial(
	c *gin.Context,
	identity *accessDomain.Identity,
	decision accessDomain.Decision,
	requirement accessDomain.Requirement,
	auditTrailUseCase auditUseCase.AuditTrailUseCase,
) {
	if auditTrailUseCase == nil {
		return
	}

	complianceRelevant := true
	input := &auditDomain.EntryInput{
		Action:             "access_denied",
		Method:             c.Request.Method,
		Endpoint:           c.Request.URL.Path,
		IPAddress:          c.ClientIP(),
		UserAgent:          c.Request.UserAgent(),
		StatusCode:         decision.StatusCode,
		RiskLevel:          auditDomain.RiskMedium,
		ComplianceRelevant: &complianceRelevant,
		Description:        "authorization denied: " + decision.Code,
		Metadata: map[string]any{
			"denial_code":          decision.Code,
			"required_permissions": requirement.RequiredPermissions,
		},
		Tags: []string{"access-denied"},
	}
	if identity != nil {
		input.UserID = identity.ID
		input.UserName = identity.Name
		input.UserRole = string(identity.Role)
		input.SessionID = identity.SessionID
	}

	auditTrailUseCase.LogEntry(c.Request.Context(), input)
}
