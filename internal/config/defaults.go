package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL              = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultRateLimit            = 10.0
	DefaultCacheStatus          = "open"
	DefaultPageLimit            = 1000
	DefaultOrderbookLimit       = 100
	DefaultOrderbookConcurrency = 10
	DefaultPollInterval         = 12 * time.Second
	DefaultFetchTimeout         = 60 * time.Second
	DefaultStaleAfter           = 60 * time.Second
	DefaultListenAddr           = ":5002"
	DefaultRedisKey             = "kalshi-tennis:snapshot"
	DefaultRedisTTL             = 5 * time.Minute
	DefaultHorizon              = 48 * time.Hour
	DefaultMinVolume            = 200.0
	DefaultPastGrace            = 2 * time.Hour
	DefaultMinStartBuffer       = 10 * time.Minute
	DefaultExpirationOffset     = 2*time.Hour + 30*time.Minute
	DefaultImplausibleAfter     = 7 * 24 * time.Hour
	DefaultDeadZone             = 0.05
	DefaultMinValue             = 0.05
	DefaultMinEV                = 0.10
	DefaultAnalyzerWorkers      = 4
	DefaultScanInterval         = 60 * time.Second
	DefaultBatchSize            = 5
	DefaultMaxTradesPerScan     = 20
	DefaultMinTimeBefore        = 10 * time.Minute
	DefaultMinPrice             = 1
	DefaultMaxPrice             = 99
	DefaultMemoryPath           = "data/trade_memory.json"
	DefaultStopTimeout          = 10 * time.Second
	DefaultSQLitePath           = "data/trades.db"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// Default list values. Copied on apply so callers cannot mutate them.
var (
	DefaultSeries = []string{"KXATPMATCH", "KXWTAMATCH", "KXUNITEDCUPMATCH"}

	DefaultSeriesPrefixes = []string{
		"kxatpmatch", "kxwtamatch", "kxunitedcupmatch", "kxatp", "kxwta",
		"kxunitedcup", "kxwimbledon", "kxusopen", "kxfrenchopen", "kxrolandgarros",
	}

	DefaultKeywords = []string{
		"tennis", "atp", "wta", "wimbledon", "us open", "french open",
		"australian open", "roland garros", "davis cup", "united cup",
	}

	DefaultExcludedKeywords = []string{
		"nfl", "nba", "mlb", "nhl", "soccer", "football",
		"basketball", "baseball", "hockey", "golf", "ufc",
	}

	DefaultExcludedTournaments = []string{
		"tournament", "season", "medals", "champion", "wins more than",
		"will win", "championship", "cup winner", "tournament winner",
	}
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = DefaultRateLimit
	}

	// Cache defaults
	if len(c.Cache.Series) == 0 {
		c.Cache.Series = append([]string(nil), DefaultSeries...)
	}
	if c.Cache.Status == "" {
		c.Cache.Status = DefaultCacheStatus
	}
	if c.Cache.PageLimit == 0 {
		c.Cache.PageLimit = DefaultPageLimit
	}
	if c.Cache.OrderbookLimit == 0 {
		c.Cache.OrderbookLimit = DefaultOrderbookLimit
	}
	if c.Cache.OrderbookConcurrency == 0 {
		c.Cache.OrderbookConcurrency = DefaultOrderbookConcurrency
	}
	if c.Cache.PollInterval == 0 {
		c.Cache.PollInterval = DefaultPollInterval
	}
	if c.Cache.FetchTimeout == 0 {
		c.Cache.FetchTimeout = DefaultFetchTimeout
	}
	if c.Cache.StaleAfter == 0 {
		c.Cache.StaleAfter = DefaultStaleAfter
	}
	if c.Cache.ListenAddr == "" {
		c.Cache.ListenAddr = DefaultListenAddr
	}
	if c.Cache.Redis.Key == "" {
		c.Cache.Redis.Key = DefaultRedisKey
	}
	if c.Cache.Redis.TTL == 0 {
		c.Cache.Redis.TTL = DefaultRedisTTL
	}

	// Discovery defaults
	d := &c.Discovery
	if len(d.SeriesPrefixes) == 0 {
		d.SeriesPrefixes = append([]string(nil), DefaultSeriesPrefixes...)
	}
	if len(d.Keywords) == 0 {
		d.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if d.ExcludedKeywords == nil {
		d.ExcludedKeywords = append([]string(nil), DefaultExcludedKeywords...)
	}
	if d.ExcludedTournaments == nil {
		d.ExcludedTournaments = append([]string(nil), DefaultExcludedTournaments...)
	}
	if d.Horizon == 0 {
		d.Horizon = DefaultHorizon
	}
	if d.MinVolume == 0 {
		d.MinVolume = DefaultMinVolume
	}
	if d.PastGrace == 0 {
		d.PastGrace = DefaultPastGrace
	}
	if d.MinStartBuffer == 0 {
		d.MinStartBuffer = DefaultMinStartBuffer
	}
	if d.ExpirationOffset == 0 {
		d.ExpirationOffset = DefaultExpirationOffset
	}
	if d.ImplausibleAfter == 0 {
		d.ImplausibleAfter = DefaultImplausibleAfter
	}

	// Analyzer defaults
	if c.Analyzer.DeadZone == 0 {
		c.Analyzer.DeadZone = DefaultDeadZone
	}
	if c.Analyzer.MinValue == 0 {
		c.Analyzer.MinValue = DefaultMinValue
	}
	if c.Analyzer.MinEV == 0 {
		c.Analyzer.MinEV = DefaultMinEV
	}
	if c.Analyzer.Workers == 0 {
		c.Analyzer.Workers = DefaultAnalyzerWorkers
	}

	// Trader defaults
	t := &c.Trader
	if t.ScanInterval == 0 {
		t.ScanInterval = DefaultScanInterval
	}
	if t.BatchSize == 0 {
		t.BatchSize = DefaultBatchSize
	}
	if t.MaxTradesPerScan == 0 {
		t.MaxTradesPerScan = DefaultMaxTradesPerScan
	}
	if t.MinTimeBefore == 0 {
		t.MinTimeBefore = DefaultMinTimeBefore
	}
	if t.MinPrice == 0 {
		t.MinPrice = DefaultMinPrice
	}
	if t.MaxPrice == 0 {
		t.MaxPrice = DefaultMaxPrice
	}
	if t.MemoryPath == "" {
		t.MemoryPath = DefaultMemoryPath
	}
	if t.StopTimeout == 0 {
		t.StopTimeout = DefaultStopTimeout
	}

	// History defaults
	if c.History.SQLitePath == "" {
		c.History.SQLitePath = DefaultSQLitePath
	}
	applyDBDefaults(&c.History.Postgres)

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
