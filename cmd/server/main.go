package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/marketlens/backend/config"
	httpDelivery "github.com/marketlens/backend/internal/delivery/http"
	"github.com/marketlens/backend/internal/domain"
	"github.com/marketlens/backend/internal/infrastructure/gamma"
	"github.com/marketlens/backend/internal/infrastructure/metrics"
	"github.com/marketlens/backend/internal/infrastructure/ratelimit"
	"github.com/marketlens/backend/internal/logging"
	"github.com/marketlens/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; real environments set variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	logger.Info("starting MarketLens backend",
		slog.String("version", httpDelivery.Version),
		slog.String("environment", cfg.Server.Environment),
		slog.String("port", cfg.Server.Port),
		slog.String("ratelimit_store", cfg.RateLimit.Store),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Initialize infrastructure dependencies
	gammaClient := gamma.NewClient(gamma.ClientConfig{
		BaseURL:           cfg.Gamma.BaseURL,
		Timeout:           cfg.Gamma.Timeout,
		RequestsPerSecond: cfg.Gamma.RequestsPerSecond,
		Burst:             cfg.Gamma.Burst,
		Metrics:           appMetrics,
		Logger:            logger,
	})
	logger.Info("gamma client configured",
		slog.String("base_url", cfg.Gamma.BaseURL),
		slog.Duration("timeout", cfg.Gamma.Timeout),
	)

	limiter, closeLimiter, err := newRateLimiter(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeLimiter()
	if memory, ok := limiter.(*ratelimit.MemoryLimiter); ok {
		metrics.RegisterTrackedKeys(registry, memory.Size)
	}

	// Initialize usecase layer
	ranker := usecase.NewMarketRanker(gammaClient, usecase.MarketRankerConfig{
		PageSize:           cfg.Search.PageSize,
		EnableDebugLogging: cfg.Search.Debug,
		Logger:             logger,
	})

	handler := httpDelivery.NewHandler(ranker, httpDelivery.HandlerConfig{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	}, appMetrics, logger)

	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterDeps{
		Limiter:  limiter,
		Metrics:  appMetrics,
		Gatherer: registry,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newRateLimiter builds the limiter selected by the configured store. The
// returned close function is always safe to call.
func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig) (domain.RateLimiter, func(), error) {
	switch cfg.Store {
	case "redis":
		limiter, err := ratelimit.NewRedisLimiter(ctx, cfg.RedisURL, cfg.PerIP)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect rate limit store: %w", err)
		}
		slog.Info("rate limiting via redis", slog.Int("per_minute", cfg.PerIP))
		return limiter, func() {
			if err := limiter.Close(); err != nil {
				slog.Warn("close rate limit store", slog.String("error", err.Error()))
			}
		}, nil
	default:
		slog.Info("rate limiting in memory", slog.Int("per_minute", cfg.PerIP))
		return ratelimit.NewMemoryLimiter(ctx, cfg.PerIP), func() {}, nil
	}
}
