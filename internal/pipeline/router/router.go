// Package router wires the pipeline HTTP routes and middleware.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/verdict-x/internal/pipeline/handler"
	"github.com/kart-io/verdict-x/internal/pipeline/metrics"
	"github.com/kart-io/verdict-x/pkg/middleware"
)

// Config carries everything route registration needs.
type Config struct {
	Handler *handler.PipelineHandler

	// Limiter enables rate limiting when non-nil.
	Limiter        middleware.RateLimiter
	TrustedProxies []string

	// Mode is a gin mode constant.
	Mode string
}

// New builds the gin engine with the middleware chain and all routes.
// The liveness probe bypasses rate limiting and access logging so probes
// never starve real traffic of window slots.
func New(cfg Config) *gin.Engine {
	gin.SetMode(cfg.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(middleware.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:        cfg.Limiter,
			SkipPaths:      []string{"/healthz"},
			TrustedProxies: cfg.TrustedProxies,
			OnReject:       func(string) { metrics.Get().RecordRateLimited() },
		}))
	}

	engine.GET("/healthz", cfg.Handler.Healthz)

	v1 := engine.Group("/v1")
	{
		pipeline := v1.Group("/pipeline")
		{
			pipeline.POST("/process", cfg.Handler.Process)
			pipeline.POST("/classify", cfg.Handler.Classify)
			pipeline.POST("/retrieve", cfg.Handler.Retrieve)
			pipeline.GET("/stats", cfg.Handler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
	return engine
}
