package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/model"
	"github.com/rickgao/kalshi-tennis/internal/players"
)

type fakePredictor struct {
	mu   sync.Mutex
	p    float64
	err  error
	seen []players.Features
}

func (f *fakePredictor) Predict(_ context.Context, feat players.Features) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, feat)
	return f.p, f.err
}

func testDirectory(t *testing.T) *players.FileDirectory {
	t.Helper()
	d, err := players.NewDirectory([]players.Player{
		{ID: "1", Name: "Novak Djokovic", Stats: players.Stats{Elo: 2100, Age: 38, Height: 188, RecentWinRate: 0.8,
			SurfaceElo: map[players.Surface]float64{players.Grass: 2200}}},
		{ID: "2", Name: "Rafael Nadal", Stats: players.Stats{Elo: 2000, Age: 39, Height: 185, RecentWinRate: 0.6,
			SurfaceElo: map[players.Surface]float64{players.Grass: 1950}}},
	}, []players.H2HRecord{{A: "1", B: "2", WinsA: 31, WinsB: 29}})
	require.NoError(t, err)
	return d
}

func newTestAnalyzer(t *testing.T, p *fakePredictor) *Analyzer {
	t.Helper()
	return New(testDirectory(t), p, DefaultConfig())
}

func djokovicListing() model.Listing {
	return model.Listing{
		Ticker:       "KXATPMATCH-26JAN05DJONAD-DJO",
		EventTicker:  "KXATPMATCH-26JAN05DJONAD",
		SeriesTicker: "KXATPMATCH",
		Title:        "Will Djokovic win the Djokovic vs Nadal match?",
		Status:       "active",
		YesBid:       60,
		YesAsk:       64,
		NoBid:        36,
		NoAsk:        40,
		Volume:       50000,
	}
}

func nadalListing() model.Listing {
	l := djokovicListing()
	l.Ticker = "KXATPMATCH-26JAN05DJONAD-NAD"
	l.Title = "Will Nadal win the Djokovic vs Nadal match?"
	l.YesBid, l.YesAsk, l.NoBid, l.NoAsk = 36, 40, 60, 64
	return l
}

func TestAnalyze_TradableYes(t *testing.T) {
	a := newTestAnalyzer(t, &fakePredictor{p: 0.70})

	res := a.Analyze(context.Background(), djokovicListing())

	assert.True(t, res.Tradable, res.Reason)
	assert.Equal(t, ReasonTradable, res.Reason)
	assert.Equal(t, "Novak Djokovic", res.Player1)
	assert.Equal(t, "Rafael Nadal", res.Player2)
	assert.Equal(t, "Novak Djokovic", res.AskedPlayer)
	assert.Equal(t, "Novak Djokovic", res.BetOnPlayer)
	assert.Equal(t, model.SideYes, res.TradeSide)
	assert.InDelta(t, 0.70, res.ModelProbability, 1e-12)
	assert.InDelta(t, 0.62, res.MarketProbability, 1e-12)
	assert.InDelta(t, 0.08, res.Edge, 1e-12)
	assert.InDelta(t, 0.08, res.TradeValue, 1e-12)
	assert.InDelta(t, 0.70/0.62-1, res.ExpectedValue, 1e-9)
	assert.InDelta(t, 0.129, res.ExpectedValue, 1e-3)
	assert.Equal(t, 500.0, res.MarketVolume)
	require.NotNil(t, res.RawP1Wins)
	assert.Equal(t, 0.70, *res.RawP1Wins)
}

func TestAnalyze_OtherFramingIsMirrored(t *testing.T) {
	a := newTestAnalyzer(t, &fakePredictor{p: 0.70})

	yes := a.Analyze(context.Background(), djokovicListing())
	no := a.Analyze(context.Background(), nadalListing())

	assert.Equal(t, "Rafael Nadal", no.AskedPlayer)
	assert.Equal(t, model.SideNo, no.TradeSide)
	assert.Equal(t, "Novak Djokovic", no.BetOnPlayer)
	assert.InDelta(t, 0.30, no.ModelProbability, 1e-12)
	assert.Equal(t, -yes.Edge, no.Edge)
	assert.Equal(t, yes.TradeValue, no.TradeValue)
	assert.Equal(t, yes.ExpectedValue, no.ExpectedValue)
	assert.Equal(t, *yes.RawP1Wins, *no.RawP1Wins)
}

func TestAnalyze_NotTradable(t *testing.T) {
	tests := []struct {
		name    string
		p       float64
		err     error
		listing func() model.Listing
		reason  string
	}{
		{"unparseable title", 0.7, nil, func() model.Listing {
			l := djokovicListing()
			l.Title = "Who wins the Australian Open?"
			return l
		}, ReasonParseFailed},
		{"unknown player", 0.7, nil, func() model.Listing {
			l := djokovicListing()
			l.Title = "Will Djokovic win the Djokovic vs Federer match?"
			return l
		}, ReasonUnresolved + ":Federer"},
		{"same player twice", 0.7, nil, func() model.Listing {
			l := djokovicListing()
			l.Title = "Will Djokovic win the Djokovic vs N. Djokovic match?"
			return l
		}, ReasonSamePlayer},
		{"predictor error", 0.7, errors.New("model offline"), djokovicListing, ReasonPredictFailed},
		{"predictor out of range", 1.5, nil, djokovicListing, ReasonPredictFailed},
		{"no quote", 0.7, nil, func() model.Listing {
			l := djokovicListing()
			l.YesBid, l.YesAsk, l.NoBid, l.NoAsk, l.LastPrice = 0, 0, 0, 0, 0
			return l
		}, ReasonNoMarketPrice},
		{"dead zone", 0.64, nil, djokovicListing, ReasonDeadZone},
		{"low expected value", 0.96, nil, func() model.Listing {
			l := djokovicListing()
			l.YesBid, l.YesAsk = 89, 91
			return l
		}, ReasonLowEV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAnalyzer(t, &fakePredictor{p: tt.p, err: tt.err})
			res := a.Analyze(context.Background(), tt.listing())
			assert.False(t, res.Tradable)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestAnalyze_LowValueWithWideDeadZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeadZone = 0.01
	a := New(testDirectory(t), &fakePredictor{p: 0.65}, cfg)

	res := a.Analyze(context.Background(), djokovicListing())
	assert.Equal(t, model.SideYes, res.TradeSide)
	assert.Equal(t, ReasonLowValue, res.Reason)
	assert.False(t, res.Tradable)
}

func TestAnalyze_FeaturesFromContext(t *testing.T) {
	p := &fakePredictor{p: 0.5}
	a := newTestAnalyzer(t, p)

	l := djokovicListing()
	l.SeriesTitle = "ATP Wimbledon"
	l.Subtitle = "Quarterfinal"
	a.Analyze(context.Background(), l)

	require.Len(t, p.seen, 1)
	f := p.seen[0]
	assert.Equal(t, 100.0, f.EloDiff)
	assert.Equal(t, 250.0, f.SurfaceEloDiff)
	assert.Equal(t, -1.0, f.AgeDiff)
	assert.InDelta(t, 0.2, f.RecentWinRateDiff, 1e-12)
	assert.InDelta(t, 2.0/60.0, f.H2HWinRateDiff, 1e-12)
	assert.True(t, f.IsGrass)
	assert.True(t, f.BestOf5)
	assert.Equal(t, RoundQuarter, f.RoundCode)
	assert.Equal(t, LevelSlam, f.TourneyLevel)
}

func TestAnalyzeAll(t *testing.T) {
	a := newTestAnalyzer(t, &fakePredictor{p: 0.70})
	start := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

	var accepted []discovery.Accepted
	for i := 0; i < 10; i++ {
		l := djokovicListing()
		l.Ticker = fmt.Sprintf("T-%02d", i)
		accepted = append(accepted, discovery.Accepted{
			Listing: l,
			Start:   &discovery.StartTime{Time: start},
			Volume:  float64(100 + i),
		})
	}

	out := a.AnalyzeAll(context.Background(), accepted)
	require.Len(t, out, 10)
	for i, res := range out {
		assert.Equal(t, fmt.Sprintf("T-%02d", i), res.Ticker)
		assert.Equal(t, float64(100+i), res.MarketVolume)
		require.NotNil(t, res.StartTime)
		assert.Equal(t, start, *res.StartTime)
	}
}

func TestValue_Symmetry(t *testing.T) {
	dz := decimal.RequireFromString("0.05")
	for mi := 1; mi < 100; mi += 3 {
		for ki := 1; ki < 100; ki += 7 {
			m := decimal.New(int64(mi), -2)
			k := decimal.New(int64(ki), -2)

			v := Value(m, k, dz)
			f := v.Flip()

			require.True(t, f.Edge.Equal(v.Edge.Neg()), "m=%s k=%s", m, k)
			require.True(t, f.TradeValue.Equal(v.TradeValue), "m=%s k=%s", m, k)
			require.True(t, f.ExpectedValue.Equal(v.ExpectedValue), "m=%s k=%s", m, k)
			require.True(t, f.Flip().Edge.Equal(v.Edge))

			switch v.Side {
			case model.SideYes:
				require.Equal(t, model.SideNo, f.Side)
			case model.SideNo:
				require.Equal(t, model.SideYes, f.Side)
			default:
				require.Equal(t, model.SideNone, f.Side)
			}
		}
	}
}

func TestValue_Scenario(t *testing.T) {
	v := Value(decimal.RequireFromString("0.70"), decimal.RequireFromString("0.62"), decimal.RequireFromString("0.05"))

	assert.Equal(t, model.SideYes, v.Side)
	assert.True(t, v.Edge.Equal(decimal.RequireFromString("0.08")))
	assert.True(t, v.TradeValue.Equal(decimal.RequireFromString("0.08")))
	assert.InDelta(t, 0.1290, v.ExpectedValue.InexactFloat64(), 1e-4)

	edge := Value(decimal.RequireFromString("0.67"), decimal.RequireFromString("0.62"), decimal.RequireFromString("0.05"))
	assert.Equal(t, model.SideNone, edge.Side, "an edge equal to the dead zone is not traded")
	assert.True(t, edge.ExpectedValue.IsZero())
}

func TestMarketProbability(t *testing.T) {
	tests := []struct {
		name string
		l    model.Listing
		want string
		ok   bool
	}{
		{"yes mid", model.Listing{YesBid: 60, YesAsk: 64, LastPrice: 10}, "0.62", true},
		{"half cent mid", model.Listing{YesBid: 60, YesAsk: 63}, "0.615", true},
		{"last trade", model.Listing{YesAsk: 64, LastPrice: 55}, "0.55", true},
		{"no mid", model.Listing{NoBid: 30, NoAsk: 34}, "0.68", true},
		{"one cent yes mid", model.Listing{YesBid: 1, YesAsk: 1}, "0.01", true},
		{"one cent last trade", model.Listing{LastPrice: 1}, "0.01", true},
		{"one cent no mid", model.Listing{NoBid: 1, NoAsk: 1}, "0.99", true},
		{"ninety nine cent yes mid", model.Listing{YesBid: 99, YesAsk: 99}, "0.99", true},
		{"nothing", model.Listing{YesBid: 60}, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MarketProbability(tt.l)
			require.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestInferContext(t *testing.T) {
	tests := []struct {
		name string
		l    model.Listing
		want MatchContext
	}{
		{"defaults", model.Listing{Title: "A vs B"},
			MatchContext{Surface: players.Hard, Round: RoundFinal, Level: LevelTour}},
		{"roland garros atp", model.Listing{SeriesTicker: "KXATPMATCH", Title: "Roland Garros: A vs B", Subtitle: "Round of 64"},
			MatchContext{Surface: players.Clay, BestOf5: true, Round: Round64, Level: LevelSlam}},
		{"wimbledon wta", model.Listing{SeriesTicker: "KXWTAMATCH", Title: "Wimbledon A vs B semifinal"},
			MatchContext{Surface: players.Grass, Round: RoundSemi, Level: LevelSlam}},
		{"indoor masters", model.Listing{SeriesTitle: "Paris Masters 1000 (indoor)", Title: "A vs B first round"},
			MatchContext{Surface: players.Hard, Indoor: true, Round: RoundFirst, Level: LevelMasters}},
		{"round of 16", model.Listing{Title: "A vs B", Subtitle: "Round of 16"},
			MatchContext{Surface: players.Hard, Round: Round16, Level: LevelTour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferContext(tt.l))
		})
	}
}

func TestParseListing_PrefersYesSubtitle(t *testing.T) {
	l := model.Listing{Title: "Djokovic vs Nadal", YesSubtitle: "Rafael Nadal"}
	pm, ok := parseListing(l)
	require.True(t, ok)
	assert.Equal(t, "Nadal", pm.Asked)

	l = model.Listing{Title: "Will Nadal win?", YesSubtitle: "Rafael Nadal", Subtitle: "Djokovic vs Nadal"}
	pm, ok = parseListing(l)
	require.True(t, ok)
	assert.True(t, strings.EqualFold(pm.Asked, "Nadal"))
	assert.Equal(t, "Djokovic", pm.PlayerA)
}
