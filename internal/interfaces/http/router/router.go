package router

import (
	"github.com/gin-gonic/gin"

	"github.com/fulfillment/backend/internal/domain/identity"
	"github.com/fulfillment/backend/internal/infrastructure/auth"
	"github.com/fulfillment/backend/internal/interfaces/http/handler"
	"github.com/fulfillment/backend/internal/interfaces/http/middleware"

	"go.uber.org/zap"
)

// Config carries everything the router needs to register routes
type Config struct {
	Engine     *gin.Engine
	Logger     *zap.Logger
	JWTService *auth.JWTService

	AuthHandler     *handler.AuthHandler
	MerchantHandler *handler.MerchantHandler
	OrderHandler    *handler.OrderHandler

	// Health is mounted outside API versioning
	Health gin.HandlerFunc
}

// Setup registers all API routes. Every /api/v1 route except token
// issuance sits behind JWT authentication; merchant-scoped routes
// additionally pass through an access gate keyed by the route's
// privilege requirement.
func Setup(cfg Config) {
	engine := cfg.Engine

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health)
	}

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		SkipPaths: []string{
			"/api/v1/auth/token",
			"/api/v1/merchants",
		},
		Logger: cfg.Logger,
	}))

	// Token issuance and merchant onboarding are the two entry points
	// that cannot require an existing token.
	api.POST("/auth/token", cfg.AuthHandler.Token)
	api.POST("/merchants", cfg.MerchantHandler.Onboard)

	merchants := api.Group("/merchants/:merchantId")

	// Read access for any stakeholder of the merchant
	staff := merchants.Group("")
	staff.Use(middleware.AccessGate(middleware.AccessGateConfig{
		RequiredLevel: identity.PrivilegeStaff,
	}))
	staff.GET("", cfg.MerchantHandler.GetByID)
	staff.POST("/orders", cfg.OrderHandler.Create)
	staff.GET("/orders/:id", cfg.OrderHandler.GetByID)
	staff.POST("/orders/:id/participants", cfg.OrderHandler.AddParticipant)

	// Pipeline execution and audit access for managers and above
	managers := merchants.Group("")
	managers.Use(middleware.AccessGate(middleware.AccessGateConfig{
		RequiredLevel: identity.PrivilegeManager,
	}))
	managers.POST("/orders/:id/verify", cfg.OrderHandler.Verify)
	managers.POST("/orders/:id/process", cfg.OrderHandler.Process)
	managers.POST("/orders/:id/participants/:participantId/verify", cfg.OrderHandler.VerifyParticipant)
	managers.POST("/orders/:id/participants/:participantId/process", cfg.OrderHandler.ProcessParticipant)
	managers.GET("/orders/:id/audit", cfg.OrderHandler.AuditTrail)

	// Membership administration for admins only
	admins := merchants.Group("")
	admins.Use(middleware.AccessGate(middleware.AccessGateConfig{
		RequiredLevel: identity.PrivilegeAdmin,
	}))
	admins.POST("/memberships", cfg.MerchantHandler.CreateMembership)
	admins.PUT("/memberships/:membershipId", cfg.MerchantHandler.UpdateMembershipLevel)
	admins.DELETE("/memberships/:membershipId", cfg.MerchantHandler.RevokeMembership)
}
