package marketcache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/metrics"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Health status values.
const (
	StatusHealthy = "healthy"
	StatusStale   = "stale"
	StatusEmpty   = "empty"
)

// ErrNoSnapshot is returned when no fetch has succeeded yet.
var ErrNoSnapshot = errors.New("no snapshot available")

// ErrStopped is returned by Start after Stop.
var ErrStopped = errors.New("cache stopped")

// State is the poller lifecycle state.
type State int32

const (
	StateUnstarted State = iota
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Source is the upstream market API. *api.Client implements it.
type Source interface {
	GetAllMarkets(ctx context.Context, opts api.GetMarketsOptions) ([]api.APIMarket, error)
	GetOrderbook(ctx context.Context, ticker string, depth int) (*api.OrderbookResponse, error)
	GetSeries(ctx context.Context, seriesTicker string) (*api.APISeries, error)
}

// Mirror receives every successful snapshot. *RedisMirror implements it.
type Mirror interface {
	Publish(ctx context.Context, snap *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
}

// Config holds cache configuration.
type Config struct {
	Series               []string      // Series tickers to list
	Status               string        // Market status filter (default: open)
	PageLimit            int           // Page size for /markets
	OrderbookLimit       int           // Listings enriched with an orderbook (default: 100)
	OrderbookConcurrency int           // Concurrent orderbook requests (default: 10)
	PollInterval         time.Duration // Fetch interval (default: 12s)
	FetchTimeout         time.Duration // Bound on one full fetch (default: 60s)
	StaleAfter           time.Duration // Age after which health reports stale
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Series:               []string{"KXATPMATCH", "KXWTAMATCH", "KXUNITEDCUPMATCH"},
		Status:               "open",
		PageLimit:            1000,
		OrderbookLimit:       100,
		OrderbookConcurrency: 10,
		PollInterval:         12 * time.Second,
		FetchTimeout:         60 * time.Second,
		StaleAfter:           60 * time.Second,
	}
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics records poll outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithMirror publishes each snapshot to m.
func WithMirror(m Mirror) Option {
	return func(c *Cache) {
		c.mirror = m
	}
}

// Cache holds the latest market snapshot.
type Cache struct {
	cfg     Config
	source  Source
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	snap  atomic.Pointer[model.Snapshot]
	state atomic.Int32

	mu     sync.Mutex // Guards lifecycle transitions
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Cache in the unstarted state.
func New(cfg Config, source Source, opts ...Option) *Cache {
	c := &Cache{
		cfg:    cfg,
		source: source,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "marketcache")
	return c
}

// State returns the lifecycle state.
func (c *Cache) State() State {
	return State(c.state.Load())
}

// Start performs one synchronous fetch and then starts the poller. Calling
// it again while polling is a no-op.
func (c *Cache) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StatePolling:
		return nil
	case StateStopped:
		return ErrStopped
	}

	if !c.poll(ctx) {
		c.warmStart(ctx)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.state.Store(int32(StatePolling))

	c.wg.Add(1)
	go c.run()

	c.logger.Info("market cache started",
		"interval", c.cfg.PollInterval,
		"series", c.cfg.Series,
	)
	return nil
}

// Stop cancels the poller and waits for it to exit or ctx to expire.
func (c *Cache) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.State() != StatePolling {
		c.state.Store(int32(StateStopped))
		c.mu.Unlock()
		return nil
	}
	c.state.Store(int32(StateStopped))
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("market cache stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a shallow copy of the current snapshot, or nil before the
// first successful fetch. Listings are shared and must not be modified.
func (c *Cache) Snapshot() *model.Snapshot {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	cp := *s
	cp.Listings = append([]model.Listing(nil), s.Listings...)
	cp.EventTiming = make(map[string]model.EventTiming, len(s.EventTiming))
	for k, v := range s.EventTiming {
		cp.EventTiming[k] = v
	}
	return &cp
}

// Latest returns the current snapshot or ErrNoSnapshot.
func (c *Cache) Latest(context.Context) (*model.Snapshot, error) {
	s := c.Snapshot()
	if s == nil {
		return nil, ErrNoSnapshot
	}
	return s, nil
}

// Health reports snapshot freshness.
func (c *Cache) Health() model.Health {
	h := model.Health{
		Status:        StatusEmpty,
		PollingActive: c.State() == StatePolling,
	}

	s := c.snap.Load()
	if s == nil {
		return h
	}

	generated := s.GeneratedAt
	age := c.now().Sub(generated)
	if age < 0 {
		age = 0
	}
	h.GeneratedAt = &generated
	h.AgeSeconds = age.Seconds()
	h.Status = StatusHealthy
	if c.cfg.StaleAfter > 0 && age > c.cfg.StaleAfter {
		h.Status = StatusStale
	}
	c.metrics.SetSnapshotAge(age)
	return h
}

// run is the polling loop. The first fetch already happened in Start.
func (c *Cache) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.poll(c.ctx)
		}
	}
}

// poll fetches once and swaps the snapshot in on success. A failure keeps
// the previous snapshot.
func (c *Cache) poll(ctx context.Context) bool {
	start := time.Now()
	snap, err := c.Fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObservePoll(false, 0, elapsed)
		if ctx.Err() != nil {
			return false
		}
		c.logger.Warn("fetch failed, keeping previous snapshot",
			"error", err,
			"age_seconds", c.Health().AgeSeconds,
		)
		return false
	}

	c.snap.Store(snap)
	c.metrics.ObservePoll(true, len(snap.Listings), elapsed)
	c.logger.Info("poll cycle complete",
		"listings", len(snap.Listings),
		"events", len(snap.EventTiming),
		"duration", elapsed,
	)

	if c.mirror != nil {
		if err := c.mirror.Publish(ctx, snap); err != nil {
			c.logger.Warn("snapshot mirror failed", "error", err)
		}
	}
	return true
}

// warmStart seeds the cache from the mirror when the first fetch failed.
func (c *Cache) warmStart(ctx context.Context) {
	if c.mirror == nil || c.snap.Load() != nil {
		return
	}
	snap, err := c.mirror.Load(ctx)
	if err != nil || snap == nil {
		c.logger.Debug("no mirrored snapshot to warm start from", "error", err)
		return
	}
	c.snap.Store(snap)
	c.logger.Info("seeded from mirrored snapshot",
		"generated_at", snap.GeneratedAt,
		"listings", len(snap.Listings),
	)
}
