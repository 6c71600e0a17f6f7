package trader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

var testNow = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

type fakeSource struct {
	mu   sync.Mutex
	snap *model.Snapshot
	err  error
}

func (f *fakeSource) Latest(context.Context) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.err
}

func (f *fakeSource) set(snap *model.Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

// stubAnalyzer returns a prepared analysis per ticker, filling in what
// discovery knows.
type stubAnalyzer struct {
	calls    atomic.Int32
	byTicker map[string]model.Analysis
}

func (s *stubAnalyzer) AnalyzeAll(_ context.Context, accepted []discovery.Accepted) []model.Analysis {
	s.calls.Add(1)
	out := make([]model.Analysis, 0, len(accepted))
	for _, acc := range accepted {
		a, ok := s.byTicker[acc.Listing.Ticker]
		if !ok {
			a = model.Analysis{TradeSide: model.SideNone, Reason: "unknown"}
		}
		a.Ticker = acc.Listing.Ticker
		a.EventTicker = acc.Listing.EventTicker
		a.MarketVolume = acc.Volume
		if acc.Start != nil {
			t := acc.Start.Time
			a.StartTime = &t
		}
		out = append(out, a)
	}
	return out
}

type fakeExchange struct {
	mu sync.Mutex

	positions []api.APIMarketPosition
	posErr    error
	books     map[string]*api.OrderbookResponse
	resting   []api.APIOrder
	fills     []api.APIFill
	createErr error

	created []api.CreateOrderRequest
}

func (f *fakeExchange) GetOrderbook(_ context.Context, ticker string, _ int) (*api.OrderbookResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.books[ticker]; ok {
		return b, nil
	}
	return nil, &api.APIError{StatusCode: 404, Message: "Not Found"}
}

func (f *fakeExchange) GetPositions(context.Context) ([]api.APIMarketPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positions, f.posErr
}

func (f *fakeExchange) GetOrders(_ context.Context, status string) ([]api.APIOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status != "resting" {
		return nil, nil
	}
	return f.resting, nil
}

func (f *fakeExchange) GetFills(context.Context) ([]api.APIFill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fills, nil
}

func (f *fakeExchange) CreateOrder(_ context.Context, req api.CreateOrderRequest) (*api.APIOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	price := 0
	if req.YesPrice != nil {
		price = *req.YesPrice
	}
	var noPrice int
	if req.NoPrice != nil {
		noPrice = *req.NoPrice
	}
	return &api.APIOrder{
		OrderID:       fmt.Sprintf("ord-%d", len(f.created)),
		ClientOrderID: req.ClientOrderID,
		Ticker:        req.Ticker,
		Side:          req.Side,
		Action:        req.Action,
		Type:          req.Type,
		Status:        "resting",
		InitialCount:  req.Count,
		YesPrice:      price,
		NoPrice:       noPrice,
	}, nil
}

func (f *fakeExchange) createdOrders() []api.CreateOrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.CreateOrderRequest(nil), f.created...)
}

type captureRecorder struct {
	mu      sync.Mutex
	records []model.TradeRecord
}

func (c *captureRecorder) Record(_ context.Context, rec model.TradeRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

// match builds one listing that passes discovery and a tradable analysis
// for it.
func match(i int, start time.Duration, volume int64) (model.Listing, model.Analysis) {
	event := fmt.Sprintf("KXATPMATCH-26JAN05M%02d", i)
	l := model.Listing{
		Ticker:       event + "-A",
		EventTicker:  event,
		SeriesTicker: "KXATPMATCH",
		Title:        "Will Alpha win the Alpha vs Beta match?",
		Status:       "active",
		YesBid:       60,
		YesAsk:       64,
		NoBid:        36,
		NoAsk:        40,
		Volume:       volume,
		Timing:       model.Timing{MatchStart: at(start)},
	}
	a := model.Analysis{
		Title:             l.Title,
		Player1:           "Alpha One",
		Player2:           "Beta Two",
		AskedPlayer:       "Alpha One",
		BetOnPlayer:       "Alpha One",
		ModelProbability:  0.70,
		MarketProbability: 0.62,
		Edge:              0.08,
		ExpectedValue:     0.129,
		TradeSide:         model.SideYes,
		TradeValue:        0.08,
		YesAsk:            64,
		NoAsk:             40,
		Tradable:          true,
		Reason:            "tradable",
	}
	return l, a
}

type fixture struct {
	source   *fakeSource
	analyzer *stubAnalyzer
	memory   *Memory
	memPath  string
	recorder *captureRecorder
}

func newFixture(t *testing.T, listings []model.Listing, analyses []model.Analysis) *fixture {
	t.Helper()
	require.Equal(t, len(listings), len(analyses))

	byTicker := make(map[string]model.Analysis, len(listings))
	timing := make(map[string]model.EventTiming, len(listings))
	for i, l := range listings {
		byTicker[l.Ticker] = analyses[i]
		timing[l.EventTicker] = model.EventTiming{EventTicker: l.EventTicker, Timing: l.Timing}
	}

	path := t.TempDir() + "/memory.json"
	mem := NewMemory(path)
	mem.now = func() time.Time { return testNow }

	return &fixture{
		source: &fakeSource{snap: &model.Snapshot{
			GeneratedAt: testNow,
			Listings:    listings,
			EventTiming: timing,
		}},
		analyzer: &stubAnalyzer{byTicker: byTicker},
		memory:   mem,
		memPath:  path,
		recorder: &captureRecorder{},
	}
}

func (f *fixture) orchestrator(cfg Config, opts ...Option) *Orchestrator {
	opts = append([]Option{WithRecorder(f.recorder)}, opts...)
	o := New(cfg, f.source, f.analyzer, f.memory, opts...)
	o.now = func() time.Time { return testNow }
	return o
}
