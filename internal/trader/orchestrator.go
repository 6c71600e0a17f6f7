package trader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/metrics"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// SnapshotSource returns the latest cached market snapshot. Both the
// in-process cache and the remote cache client implement it.
type SnapshotSource interface {
	Latest(ctx context.Context) (*model.Snapshot, error)
}

// Exchange is the subset of the Kalshi API used for execution.
// *api.Client implements it.
type Exchange interface {
	GetOrderbook(ctx context.Context, ticker string, depth int) (*api.OrderbookResponse, error)
	GetPositions(ctx context.Context) ([]api.APIMarketPosition, error)
	GetOrders(ctx context.Context, status string) ([]api.APIOrder, error)
	GetFills(ctx context.Context) ([]api.APIFill, error)
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*api.APIOrder, error)
}

// Analyzer values discovered listings.
type Analyzer interface {
	AnalyzeAll(ctx context.Context, accepted []discovery.Accepted) []model.Analysis
}

// Recorder persists trade records.
type Recorder interface {
	Record(ctx context.Context, rec model.TradeRecord) error
}

// Config holds orchestrator settings.
type Config struct {
	Discovery discovery.Config

	DryRun           bool
	MinEdge          float64       // Minimum trade value for grouping
	BatchSize        int           // Candidates per batch
	MaxTradesPerScan int           // Hard cap per scan
	MinTimeBefore    time.Duration // Minimum lead time before the match start
	MinPrice         int           // Cents, inclusive
	MaxPrice         int           // Cents, inclusive
	OrderbookDepth   int           // Levels requested when pricing
}

// DefaultConfig returns dry-run defaults.
func DefaultConfig() Config {
	return Config{
		Discovery:        discovery.DefaultConfig(),
		DryRun:           true,
		MinEdge:          0.05,
		BatchSize:        5,
		MaxTradesPerScan: 20,
		MinTimeBefore:    10 * time.Minute,
		MinPrice:         1,
		MaxPrice:         99,
		OrderbookDepth:   10,
	}
}

// Orchestrator runs scans and places trades.
type Orchestrator struct {
	cfg      Config
	source   SnapshotSource
	analyzer Analyzer
	memory   *Memory

	exchange Exchange // nil allowed in dry-run
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time

	scanMu sync.Mutex

	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExchange sets the exchange used for positions, pricing and orders.
func WithExchange(e Exchange) Option {
	return func(o *Orchestrator) {
		o.exchange = e
	}
}

// WithRecorder persists every trade record.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithMetrics records scan and trade metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(cfg Config, source SnapshotSource, analyzer Analyzer, memory *Memory, opts ...Option) *Orchestrator {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.MaxTradesPerScan < 1 {
		cfg.MaxTradesPerScan = 1
	}
	o := &Orchestrator{
		cfg:      cfg,
		source:   source,
		analyzer: analyzer,
		memory:   memory,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Memory returns the trade memory.
func (o *Orchestrator) Memory() *Memory {
	return o.memory
}

// eventID returns the analysis event ticker or derives it from the ticker.
func eventID(a model.Analysis) string {
	if a.EventTicker != "" {
		return a.EventTicker
	}
	return api.EventTickerFromTicker(a.Ticker)
}
