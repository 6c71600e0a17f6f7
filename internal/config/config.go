package config

import "time"

// Config is the root configuration shared by the cache service and the trader.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Cache     CacheConfig     `yaml:"cache"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Trader    TraderConfig    `yaml:"trader"`
	Players   PlayersConfig   `yaml:"players"`
	History   HistoryConfig   `yaml:"history"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig holds Kalshi API settings.
type APIConfig struct {
	RestURL        string        `yaml:"rest_url"`
	APIKey         string        `yaml:"api_key"`          // API key ID (for KALSHI-ACCESS-KEY header)
	PrivateKeyPath string        `yaml:"private_key_path"` // Path to RSA private key PEM file
	PrivateKey     string        `yaml:"private_key"`      // Inline PEM, wins over the path
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RateLimit      float64       `yaml:"rate_limit"` // Requests per second
}

// HasCredentials reports whether signing material is configured.
func (a APIConfig) HasCredentials() bool {
	return a.APIKey != "" && (a.PrivateKeyPath != "" || a.PrivateKey != "")
}

// CacheConfig holds market data cache settings.
type CacheConfig struct {
	Series               []string      `yaml:"series"`
	Status               string        `yaml:"status"`
	PageLimit            int           `yaml:"page_limit"`
	OrderbookLimit       int           `yaml:"orderbook_limit"` // Listings enriched with an orderbook per fetch
	OrderbookConcurrency int           `yaml:"orderbook_concurrency"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	StaleAfter           time.Duration `yaml:"stale_after"`
	ListenAddr           string        `yaml:"listen_addr"`
	Redis                RedisConfig   `yaml:"redis"`
}

// RedisConfig enables the optional snapshot mirror when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	TTL      time.Duration `yaml:"ttl"`
}

// DiscoveryConfig holds tennis filter settings.
type DiscoveryConfig struct {
	SeriesPrefixes      []string      `yaml:"series_prefixes"`
	Keywords            []string      `yaml:"keywords"`
	ExcludedKeywords    []string      `yaml:"excluded_keywords"`
	ExcludedTournaments []string      `yaml:"excluded_tournaments"`
	Horizon             time.Duration `yaml:"horizon"`
	MinVolume           float64       `yaml:"min_volume"`
	PastGrace           time.Duration `yaml:"past_grace"`
	MinStartBuffer      time.Duration `yaml:"min_start_buffer"`
	ExpirationOffset    time.Duration `yaml:"expiration_offset"`
	ImplausibleAfter    time.Duration `yaml:"implausible_after"`
}

// AnalyzerConfig holds valuation thresholds.
type AnalyzerConfig struct {
	DeadZone float64 `yaml:"dead_zone"`
	MinValue float64 `yaml:"min_value"`
	MinEV    float64 `yaml:"min_ev"`
	Workers  int     `yaml:"workers"`
}

// TraderConfig holds orchestrator settings.
type TraderConfig struct {
	DryRun           *bool         `yaml:"dry_run"` // nil means true
	ScanInterval     time.Duration `yaml:"scan_interval"`
	BatchSize        int           `yaml:"batch_size"`
	MaxTradesPerScan int           `yaml:"max_trades_per_scan"`
	MinTimeBefore    time.Duration `yaml:"min_time_before"`
	MinPrice         int           `yaml:"min_price"` // Cents
	MaxPrice         int           `yaml:"max_price"` // Cents
	MemoryPath       string        `yaml:"memory_path"`
	CacheURL         string        `yaml:"cache_url"` // Read a remote cache instead of polling Kalshi
	StopTimeout      time.Duration `yaml:"stop_timeout"`
}

// IsDryRun reports whether orders are simulated.
func (t TraderConfig) IsDryRun() bool {
	return t.DryRun == nil || *t.DryRun
}

// PlayersConfig points at the player directory file.
type PlayersConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig selects the trade history store. An empty driver disables it.
type HistoryConfig struct {
	Driver     string   `yaml:"driver"` // "", sqlite, postgres
	SQLitePath string   `yaml:"sqlite_path"`
	Postgres   DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
