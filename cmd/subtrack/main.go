package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"subtrack/internal/analytics"
	"subtrack/internal/backend"
	"subtrack/internal/cache"
	"subtrack/internal/cli"
	apphttp "subtrack/internal/http"
	applog "subtrack/internal/log"
	"subtrack/internal/news"
	"subtrack/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	cacheReport     = 5 * time.Minute
)

func main() {
	_ = cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.CreateBackend(ctx, logger, cfg)
	subs := result.Service()

	ratesSvc := cli.NewRatesService(cfg)
	newsClient := news.NewClient(news.Config{
		BaseURL:   cfg.NewsAPIURL,
		APIKey:    cfg.NewsAPIKey,
		Timeout:   cfg.HTTPClientTimeout,
		CacheTTL:  cfg.NewsCacheTTL,
		CacheSize: cfg.NewsCacheSize,
	})
	caches := cache.NewManager()
	caches.Register("news", newsClient.Cache())
	caches.StartReporting(cacheReport)

	loader := services.NewLoader(result.Backend, ratesSvc)

	// Rows written while the broker was unreachable get announced again.
	if replayer, ok := result.Backend.(backend.PendingReplayer); ok {
		if n, err := replayer.ReplayPending(ctx, cfg.SyncBatchSize); err != nil {
			logger.Warn("Replaying pending changes failed", "error", err)
		} else if n > 0 {
			logger.Info("Replayed pending changes", "count", n)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Subscriptions:     subs,
		Loader:            loader,
		Rates:             ratesSvc,
		News:              newsClient,
		Durations:         analytics.NewDurationEstimator(cfg.DurationSource),
		Logger:            logger.WithComponent(applog.ComponentHTTP),
		RequestsPerMinute: cfg.RateLimitPerMin,
	})

	// The first snapshot loads in the background; /readyz reports 503 until then.
	go func() {
		if _, err := loader.Refresh(ctx); err != nil {
			logger.Error("Initial subscription load failed", "error", err)
		}
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		caches.Stop()
		if result.Cleanup != nil {
			err = errors.Join(err, result.Cleanup())
		}
		return err
	})

	logger.Info("Starting subtrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"duration_source", cfg.DurationSource)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
