// Package http provides the HTTP server, router setup and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	accessDomain "github.com/allisson/compliance/internal/access/domain"
	accessHTTP "github.com/allisson/compliance/internal/access/http"
	accessUseCase "github.com/allisson/compliance/internal/access/usecase"
	auditHTTP "github.com/allisson/compliance/internal/audit/http"
	auditUseCase "github.com/allisson/compliance/internal/audit/usecase"
	"github.com/allisson/compliance/internal/metrics"
)

// Server represents the main API server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
	host   string
	port   int
}

// NewServer creates a new HTTP server. The router is assembled separately via
// SetupRouter so tests can wire a minimal one.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		host:   host,
		port:   port,
	}
}

// RouterConfig carries the handlers and policies the router is built from.
type RouterConfig struct {
	IdentityProvider  accessHTTP.IdentityProvider
	PermissionChecker accessUseCase.PermissionChecker
	AuditTrailUseCase auditUseCase.AuditTrailUseCase
	AuditTrailHandler *auditHTTP.AuditTrailHandler
	PermissionHandler *accessHTTP.PermissionHandler
	RoleHandler       *accessHTTP.RoleHandler

	MeterProvider    metric.MeterProvider
	MetricsNamespace string

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Permission ids guarding the management surface. manage_permissions and
// manage_roles are seeded system permissions; out of the box only super_admin
// holds them.
const (
	PermissionViewAuditTrail    = "view_audit_trail"
	PermissionManagePermissions = "manage_permissions"
	PermissionManageRoles       = "manage_roles"
)

// SetupRouter builds the gin router with the full middleware chain and the
// /v1 route groups.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(cfg.MeterProvider, cfg.MetricsNamespace))
	}

	router.Use(accessHTTP.IdentityMiddleware(cfg.IdentityProvider, s.logger))

	if cfg.RateLimitEnabled {
		router.Use(accessHTTP.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, s.logger))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	guard := func(permissionIDs ...string) gin.HandlerFunc {
		return accessHTTP.RequirePermissions(
			accessDomain.Requirement{
				RequiredPermissions: permissionIDs,
				AllowSuperAdmin:     true,
			},
			cfg.PermissionChecker,
			cfg.AuditTrailUseCase,
			s.logger,
		)
	}

	auditTrail := router.Group("/v1/audit-trail")
	{
		auditTrail.GET("", guard(PermissionViewAuditTrail), cfg.AuditTrailHandler.ListHandler)
		auditTrail.GET("/stats", guard(PermissionViewAuditTrail), cfg.AuditTrailHandler.StatsHandler)
		// Any authenticated identity may record an entry.
		auditTrail.POST("", guard(), cfg.AuditTrailHandler.CreateHandler)
	}

	permissions := router.Group("/v1/permissions")
	permissions.Use(guard(PermissionManagePermissions))
	{
		permissions.GET("", cfg.PermissionHandler.ListHandler)
		permissions.GET("/categories", cfg.PermissionHandler.CategoriesHandler)
		permissions.GET("/:id", cfg.PermissionHandler.GetHandler)
		permissions.POST("", cfg.PermissionHandler.CreateHandler)
		permissions.POST("/validate", cfg.PermissionHandler.ValidateHandler)
		permissions.PUT("/:id", cfg.PermissionHandler.UpdateHandler)
		permissions.DELETE("/:id", cfg.PermissionHandler.DeleteHandler)
	}

	roles := router.Group("/v1/roles")
	roles.Use(guard(PermissionManageRoles))
	{
		roles.GET("", cfg.RoleHandler.ListHandler)
		roles.GET("/:role", cfg.RoleHandler.GetHandler)
		roles.PUT("/:role", cfg.RoleHandler.UpdateHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking the
// database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
