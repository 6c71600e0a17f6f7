package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/config"
	"github.com/rickgao/kalshi-tennis/internal/httpapi"
	"github.com/rickgao/kalshi-tennis/internal/marketcache"
	"github.com/rickgao/kalshi-tennis/internal/metrics"
	"github.com/rickgao/kalshi-tennis/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/marketcache.local.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		config.Default().Log.NewLogger(os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)

	logger.Info("starting market cache",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiClient, err := api.NewFromConfig(cfg.API, logger)
	if err != nil {
		logger.Error("failed to create api client", "error", err)
		os.Exit(1)
	}

	// The cache serves its mirrored or empty snapshot while Kalshi is down.
	apiClient.CheckExchange(ctx, false)

	m := metrics.New()
	opts := []marketcache.Option{
		marketcache.WithLogger(logger),
		marketcache.WithMetrics(m),
	}

	if addr := cfg.Cache.Redis.Addr; addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, mirror disabled", "addr", addr, "error", err)
		} else {
			opts = append(opts, marketcache.WithMirror(
				marketcache.NewRedisMirror(rdb, cfg.Cache.Redis.Key, cfg.Cache.Redis.TTL),
			))
			logger.Info("redis mirror enabled", "addr", addr, "key", cfg.Cache.Redis.Key)
		}
	}

	cache := marketcache.New(marketcache.FromConfig(cfg.Cache), apiClient, opts...)
	if err := cache.Start(ctx); err != nil {
		logger.Error("failed to start market cache", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr: cfg.Cache.ListenAddr,
		Handler: httpapi.New(cache,
			httpapi.WithLogger(logger),
			httpapi.WithMetricsHandler(m.Handler()),
		).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}
	if err := cache.Stop(shutdownCtx); err != nil {
		logger.Warn("market cache stop", "error", err)
	}

	logger.Info("market cache stopped")
}
