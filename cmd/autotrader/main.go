package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/analyzer"
	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/config"
	"github.com/rickgao/kalshi-tennis/internal/history"
	"github.com/rickgao/kalshi-tennis/internal/marketcache"
	"github.com/rickgao/kalshi-tennis/internal/metrics"
	"github.com/rickgao/kalshi-tennis/internal/players"
	"github.com/rickgao/kalshi-tennis/internal/report"
	"github.com/rickgao/kalshi-tennis/internal/trader"
	"github.com/rickgao/kalshi-tennis/internal/version"
)

func main() {
	var (
		configPath = flag.String("config", "configs/autotrader.local.yaml", "path to config file")
		once       = flag.Bool("once", false, "run a single scan and exit")
		candidates = flag.Bool("candidates", false, "print the current candidates and exit")
		showLast   = flag.Int("history", 0, "print the last N recorded trades and exit")
		importFrom = flag.String("import-history", "", "copy trades from a SQLite history file into the configured store and exit")
	)
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		config.Default().Log.NewLogger(os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *importFrom != "" {
		if err := importHistory(ctx, cfg.History, *importFrom, logger); err != nil {
			logger.Error("failed to import trade history", "error", err)
			os.Exit(1)
		}
		return
	}

	if *showLast > 0 {
		if err := printHistory(ctx, cfg.History, *showLast); err != nil {
			logger.Error("failed to read trade history", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger, *once, *candidates); err != nil {
		logger.Error("autotrader failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, once, candidatesOnly bool) error {
	dryRun := cfg.Trader.IsDryRun()
	logger.Info("starting autotrader",
		"version", version.Version,
		"commit", version.Commit,
		"dry_run", dryRun,
	)

	hasCreds := cfg.API.HasCredentials()
	if !dryRun && !hasCreds {
		return errors.New("live trading requires api.api_key and a private key")
	}

	apiClient, err := api.NewFromConfig(cfg.API, logger)
	if err != nil {
		return err
	}
	if err := apiClient.CheckExchange(ctx, !dryRun); err != nil {
		return fmt.Errorf("exchange preflight: %w", err)
	}

	m := metrics.New()
	if !once && !candidatesOnly {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Port, cfg.Metrics.Path, logger); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	source, cleanup, err := snapshotSource(ctx, cfg, apiClient, m, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	dir, err := players.LoadFile(cfg.Players.Path)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	logger.Info("player directory loaded", "path", cfg.Players.Path, "players", len(dir.Names()))

	an := analyzer.New(dir, players.NewEloPredictor(), analyzer.FromConfig(cfg.Analyzer),
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(m),
	)

	memory := trader.NewMemory(cfg.Trader.MemoryPath)
	if err := memory.Load(); err != nil {
		return err
	}
	logger.Info("trade memory loaded", "path", cfg.Trader.MemoryPath, "events", memory.Len())

	opts := []trader.Option{
		trader.WithLogger(logger),
		trader.WithMetrics(m),
	}
	if hasCreds {
		opts = append(opts, trader.WithExchange(apiClient))
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open trade history: %w", err)
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, trader.WithRecorder(store))
	}

	orch := trader.New(trader.FromConfig(cfg), source, an, memory, opts...)

	if candidatesOnly {
		list, err := orch.Candidates(ctx)
		if err != nil {
			return err
		}
		report.Candidates(os.Stdout, list)
		return nil
	}

	if hasCreds {
		if err := orch.Reconcile(ctx); err != nil {
			if !dryRun {
				return fmt.Errorf("reconcile trade memory: %w", err)
			}
			logger.Warn("reconcile failed in dry run", "error", err)
		}
	}

	if once {
		trades, err := orch.ScanAndTrade(ctx)
		report.Trades(os.Stdout, trades)
		return err
	}

	if err := orch.StartLoop(ctx, cfg.Trader.ScanInterval); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutting down...")

	if err := orch.StopLoop(cfg.Trader.StopTimeout); err != nil {
		return err
	}
	logger.Info("autotrader stopped", "traded_events", memory.Len())
	return nil
}

// snapshotSource returns the remote cache client when trader.cache_url is
// set, otherwise an in-process cache polling Kalshi directly.
func snapshotSource(ctx context.Context, cfg *config.Config, apiClient *api.Client, m *metrics.Metrics, logger *slog.Logger) (trader.SnapshotSource, func(), error) {
	if url := cfg.Trader.CacheURL; url != "" {
		client := marketcache.NewClient(url)
		h, err := client.Health(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("reach market cache %s: %w", url, err)
		}
		logger.Info("using remote market cache", "url", url, "status", h.Status, "age_seconds", h.AgeSeconds)
		return client, func() {}, nil
	}

	cache := marketcache.New(marketcache.FromConfig(cfg.Cache), apiClient,
		marketcache.WithLogger(logger),
		marketcache.WithMetrics(m),
	)
	if err := cache.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start market cache: %w", err)
	}
	cleanup := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := cache.Stop(stopCtx); err != nil {
			logger.Warn("market cache stop", "error", err)
		}
	}
	return cache, cleanup, nil
}

func printHistory(ctx context.Context, cfg config.HistoryConfig, n int) error {
	store, err := history.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("history.driver is not configured")
	}
	defer store.Close()

	recs, err := store.Recent(ctx, n)
	if err != nil {
		return err
	}
	report.Trades(os.Stdout, recs)
	return nil
}

func importHistory(ctx context.Context, cfg config.HistoryConfig, path string, logger *slog.Logger) error {
	dst, err := history.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if dst == nil {
		return errors.New("history.driver is not configured")
	}
	defer dst.Close()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("import source: %w", err)
	}
	src, err := history.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer src.Close()

	n, err := history.Import(ctx, dst, src, math.MaxInt32)
	if err != nil {
		return err
	}
	logger.Info("trade history imported", "from", path, "driver", cfg.Driver, "new_records", n)
	return nil
}
