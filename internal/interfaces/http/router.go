package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"keygate/internal/infrastructure/config"
	"keygate/internal/infrastructure/ratelimit"
	"keygate/internal/interfaces/http/handlers"
	"keygate/internal/interfaces/http/middleware"
	"keygate/internal/shared/logger"
	"keygate/internal/shared/utils"
)

// Router owns the gin engine and the handler wiring.
type Router struct {
	engine         *gin.Engine
	authHandler    *handlers.AuthHandler
	licenseHandler *handlers.LicenseHandler
	paymentHandler *handlers.PaymentHandler
	adminHandler   *handlers.AdminHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    ratelimit.RateLimiter
	logger         logger.Interface
}

func NewRouter(
	authHandler *handlers.AuthHandler,
	licenseHandler *handlers.LicenseHandler,
	paymentHandler *handlers.PaymentHandler,
	adminHandler *handlers.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter ratelimit.RateLimiter,
	log logger.Interface,
) *Router {
	return &Router{
		engine:         gin.New(),
		authHandler:    authHandler,
		licenseHandler: licenseHandler,
		paymentHandler: paymentHandler,
		adminHandler:   adminHandler,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		logger:         log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config) {
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second))

	r.engine.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "", gin.H{"status": "ok"})
	})

	v1 := r.engine.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
	}

	v1.GET("/plans", r.paymentHandler.Plans)

	// Provider webhooks carry their own signature; no session auth.
	v1.POST("/payments/callback", r.paymentHandler.Callback)

	lic := v1.Group("/license")
	lic.Use(r.authMiddleware.RequireAuth())
	{
		lic.GET("", r.licenseHandler.Status)
		lic.POST("/heartbeat",
			middleware.HeartbeatRateLimit(r.rateLimiter, cfg.HeartbeatRateLimit, r.logger),
			r.licenseHandler.Heartbeat)
		lic.POST("/activate", r.licenseHandler.Activate)
		lic.POST("/reset-hwid", r.licenseHandler.ResetHWID)
	}

	payments := v1.Group("/payments")
	payments.Use(r.authMiddleware.RequireAuth())
	{
		payments.POST("", r.paymentHandler.Create)
		payments.GET("/:orderNo", r.paymentHandler.Get)
	}

	admin := v1.Group("/admin")
	admin.Use(r.authMiddleware.RequireAuth(), r.authMiddleware.RequireAdmin())
	{
		admin.GET("/licenses/:userID", r.adminHandler.GetLicense)
		admin.POST("/licenses/:userID", r.adminHandler.Act)
		admin.POST("/activation-keys", r.adminHandler.CreateKeys)
	}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
