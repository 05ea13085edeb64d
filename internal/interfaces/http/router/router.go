// Package router assembles the gin engine: middleware chain, route groups
// and the authentication boundaries between them.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/infrastructure/auth"
	"github.com/vendorportal/backend/internal/infrastructure/config"
	"github.com/vendorportal/backend/internal/infrastructure/logger"
	"github.com/vendorportal/backend/internal/infrastructure/telemetry"
	"github.com/vendorportal/backend/internal/interfaces/http/handler"
	"github.com/vendorportal/backend/internal/interfaces/http/middleware"
)

// Deps carries everything the router needs to wire the HTTP surface.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Verifier *auth.TokenVerifier
	Meter    *telemetry.MeterProvider

	Health   *handler.HealthHandler
	Sync     *handler.SyncHandler
	Approval *handler.ApprovalHandler
}

// New builds the gin engine with the full middleware chain and all routes.
//
// Route groups and their authentication:
//   - /health, /ready            public probes
//   - /api/v1/*                  operator JWT
//   - /api/v1/webhooks/*         pre-shared webhook bearer token
func New(deps Deps) *gin.Engine {
	cfg := deps.Config

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			deps.Logger.Warn("failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(logger.GinMiddleware(deps.Logger, "/health", "/ready"))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(deps.Meter))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Telemetry.ProfilerEnabled,
		SkipPaths: []string{"/health", "/ready"},
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		deps.Logger.Info("rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", deps.Health.Health)
	engine.GET("/ready", deps.Health.Ready)

	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.Verifier))
	{
		api.POST("/sync", deps.Sync.TriggerSync)
		api.POST("/sync/purchase-orders/:id", deps.Sync.SyncSinglePurchaseOrder)
		api.GET("/sync/logs", deps.Sync.ListSyncLogs)
		api.POST("/purchase-orders/:id/approve", deps.Approval.Approve)
	}

	// The ERP calls this with a pre-shared token when a purchase order is
	// approved or edited on the NetSuite side.
	webhooks := engine.Group("/api/v1/webhooks")
	webhooks.Use(middleware.WebhookAuth(cfg.Auth.WebhookToken))
	{
		webhooks.POST("/purchase-orders/:id/sync", deps.Sync.SyncSinglePurchaseOrder)
	}

	return engine
}
