package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.RestURL == "" {
		return errors.New("api.rest_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.APIKey != "" && c.API.PrivateKeyPath == "" && c.API.PrivateKey == "" {
		return errors.New("api.private_key_path or api.private_key is required when api.api_key is set")
	}

	if len(c.Cache.Series) == 0 {
		return errors.New("cache.series must not be empty")
	}
	if c.Cache.PollInterval <= 0 {
		return errors.New("cache.poll_interval must be > 0")
	}
	if c.Cache.OrderbookLimit < 0 {
		return errors.New("cache.orderbook_limit must be >= 0")
	}
	if c.Cache.OrderbookConcurrency < 1 {
		return errors.New("cache.orderbook_concurrency must be >= 1")
	}

	if c.Discovery.Horizon <= 0 {
		return errors.New("discovery.horizon must be > 0")
	}
	if c.Discovery.MinVolume < 0 {
		return errors.New("discovery.min_volume must be >= 0")
	}
	if c.Discovery.ImplausibleAfter < c.Discovery.Horizon {
		return fmt.Errorf("discovery.implausible_after (%s) cannot be below discovery.horizon (%s)",
			c.Discovery.ImplausibleAfter, c.Discovery.Horizon)
	}

	if c.Analyzer.DeadZone < 0 || c.Analyzer.DeadZone >= 0.5 {
		return fmt.Errorf("analyzer.dead_zone must be in [0, 0.5), got %g", c.Analyzer.DeadZone)
	}
	if c.Analyzer.Workers < 1 {
		return errors.New("analyzer.workers must be >= 1")
	}

	if c.Trader.BatchSize < 1 {
		return errors.New("trader.batch_size must be >= 1")
	}
	if c.Trader.MaxTradesPerScan < 1 {
		return errors.New("trader.max_trades_per_scan must be >= 1")
	}
	if c.Trader.ScanInterval <= 0 {
		return errors.New("trader.scan_interval must be > 0")
	}
	if c.Trader.MinPrice < 1 || c.Trader.MaxPrice > 99 || c.Trader.MinPrice > c.Trader.MaxPrice {
		return fmt.Errorf("trader price bounds must satisfy 1 <= min_price <= max_price <= 99, got %d..%d",
			c.Trader.MinPrice, c.Trader.MaxPrice)
	}
	if c.Trader.MemoryPath == "" {
		return errors.New("trader.memory_path is required")
	}

	switch c.History.Driver {
	case "":
	case "sqlite":
		if c.History.SQLitePath == "" {
			return errors.New("history.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if err := c.History.Postgres.validate("history.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("history.driver must be sqlite or postgres, got %q", c.History.Driver)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
