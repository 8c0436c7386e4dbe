package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/marketlens/backend/config"
	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps holds the optional collaborators of the router
type RouterDeps struct {
	Limiter  domain.RateLimiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, deps RouterDeps) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(deps.Metrics))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(deps.Limiter, logger))
	{
		markets := v1.Group("/markets")
		{
			markets.POST("/search", handler.SearchMarkets)
		}

		v1.POST("/terms", handler.ExtractTerms)
	}

	return router
}
