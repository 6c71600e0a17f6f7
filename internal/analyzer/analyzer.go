// Package analyzer values discovered listings against the player model.
//
// Analyze never fails: every problem becomes a non-tradable Analysis with a
// reason, so one bad listing cannot abort a scan. Probabilities are handled
// as exact decimals so that the two framings of one match produce edges
// that are exact negations of each other.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/metrics"
	"github.com/rickgao/kalshi-tennis/internal/model"
	"github.com/rickgao/kalshi-tennis/internal/names"
	"github.com/rickgao/kalshi-tennis/internal/players"
)

// Reasons reported on non-tradable analyses.
const (
	ReasonTradable      = "tradable"
	ReasonParseFailed   = "parse_failed"
	ReasonUnresolved    = "unresolved_player"
	ReasonSamePlayer    = "same_player"
	ReasonNoStats       = "no_stats"
	ReasonPredictFailed = "prediction_failed"
	ReasonNoMarketPrice = "no_market_price"
	ReasonDeadZone      = "dead_zone"
	ReasonLowValue      = "below_min_value"
	ReasonLowEV         = "below_min_ev"
)

// Config holds valuation thresholds.
type Config struct {
	DeadZone float64 // |edge| at or below this gets no side
	MinValue float64 // Minimum trade value to be tradable
	MinEV    float64 // Minimum expected value to be tradable
	Workers  int     // AnalyzeAll concurrency
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{DeadZone: 0.05, MinValue: 0.05, MinEV: 0.10, Workers: 4}
}

// Analyzer turns listings into Analyses. Safe for concurrent use.
type Analyzer struct {
	dir       players.Directory
	predictor players.Predictor
	resolver  *names.Resolver

	deadZone decimal.Decimal
	minValue decimal.Decimal
	minEV    decimal.Decimal
	workers  int

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithMetrics records analysis outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// New creates an Analyzer. The name resolver is built once from the
// directory's names.
func New(dir players.Directory, predictor players.Predictor, cfg Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		dir:       dir,
		predictor: predictor,
		resolver:  names.NewResolver(dir.Names()),
		deadZone:  decimal.NewFromFloat(cfg.DeadZone),
		minValue:  decimal.NewFromFloat(cfg.MinValue),
		minEV:     decimal.NewFromFloat(cfg.MinEV),
		workers:   cfg.Workers,
		logger:    slog.Default(),
	}
	if a.workers < 1 {
		a.workers = 1
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeAll analyzes accepted listings concurrently. The result is in
// input order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, accepted []discovery.Accepted) []model.Analysis {
	out := make([]model.Analysis, len(accepted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, acc := range accepted {
		g.Go(func() error {
			out[i] = a.AnalyzeAccepted(gctx, acc)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// AnalyzeAccepted analyzes a discovery result, carrying over its start time
// and normalized volume.
func (a *Analyzer) AnalyzeAccepted(ctx context.Context, acc discovery.Accepted) model.Analysis {
	res := a.Analyze(ctx, acc.Listing)
	res.MarketVolume = acc.Volume
	if acc.Start != nil {
		t := acc.Start.Time
		res.StartTime = &t
	}
	return res
}

// Analyze values one listing.
func (a *Analyzer) Analyze(ctx context.Context, l model.Listing) model.Analysis {
	res := model.Analysis{
		Ticker:       l.Ticker,
		EventTicker:  l.EventTicker,
		Title:        l.Title,
		YesAsk:       l.YesAsk,
		NoAsk:        l.NoAsk,
		MarketVolume: discovery.NormalizeVolume(float64(l.Volume)),
		TradeSide:    model.SideNone,
	}

	outcome := a.analyze(ctx, l, &res)
	a.metrics.ObserveAnalysis(outcome)
	a.logger.Debug("analyzed listing",
		"ticker", l.Ticker,
		"outcome", outcome,
		"reason", res.Reason,
		"edge", res.Edge,
		"ev", res.ExpectedValue,
	)
	return res
}

func (a *Analyzer) analyze(ctx context.Context, l model.Listing, res *model.Analysis) string {
	pm, ok := parseListing(l)
	if !ok {
		res.Reason = ReasonParseFailed
		return "unparsed"
	}

	p1, ok := a.resolver.Resolve(pm.PlayerA)
	if !ok {
		res.Reason = fmt.Sprintf("%s:%s", ReasonUnresolved, pm.PlayerA)
		return "unresolved"
	}
	p2, ok := a.resolver.Resolve(pm.PlayerB)
	if !ok {
		res.Reason = fmt.Sprintf("%s:%s", ReasonUnresolved, pm.PlayerB)
		return "unresolved"
	}
	if p1 == p2 {
		res.Reason = ReasonSamePlayer
		return "unresolved"
	}
	res.Player1, res.Player2 = p1, p2

	askedIsB := pm.AskedIsB()
	if asked, ok := a.resolver.Resolve(pm.Asked); ok && (asked == p1 || asked == p2) {
		askedIsB = asked == p2
	}
	res.AskedPlayer = p1
	if askedIsB {
		res.AskedPlayer = p2
	}

	features, ok := a.features(p1, p2, InferContext(l))
	if !ok {
		res.Reason = ReasonNoStats
		return "unresolved"
	}

	raw, err := a.predictor.Predict(ctx, features)
	if err != nil || math.IsNaN(raw) || raw < 0 || raw > 1 {
		res.Reason = ReasonPredictFailed
		if err != nil {
			a.logger.Warn("prediction failed", "ticker", l.Ticker, "error", err)
		}
		return "error"
	}
	res.RawP1Wins = &raw

	m := decimal.NewFromFloat(raw)
	if askedIsB {
		m = one.Sub(m)
	}

	k, ok := MarketProbability(l)
	if !ok || !k.IsPositive() || !k.LessThan(one) {
		res.Reason = ReasonNoMarketPrice
		return "no_price"
	}

	v := Value(m, k, a.deadZone)
	res.ModelProbability = m.InexactFloat64()
	res.MarketProbability = k.InexactFloat64()
	res.Edge = v.Edge.InexactFloat64()
	res.TradeSide = v.Side
	res.TradeValue = v.TradeValue.InexactFloat64()
	res.ExpectedValue = v.ExpectedValue.InexactFloat64()

	switch v.Side {
	case model.SideYes:
		res.BetOnPlayer = res.AskedPlayer
	case model.SideNo:
		res.BetOnPlayer = p1
		if res.AskedPlayer == p1 {
			res.BetOnPlayer = p2
		}
	}

	switch {
	case v.Side == model.SideNone:
		res.Reason = ReasonDeadZone
	case v.TradeValue.LessThan(a.minValue):
		res.Reason = ReasonLowValue
	case v.ExpectedValue.LessThan(a.minEV):
		res.Reason = ReasonLowEV
	default:
		res.Tradable = true
		res.Reason = ReasonTradable
		return "tradable"
	}
	return "not_tradable"
}

// parseListing tries the yes subtitle first since it usually names the
// asked player, then the plain subtitle.
func parseListing(l model.Listing) (names.ParsedMatch, bool) {
	var subs []string
	if l.YesSubtitle != "" {
		subs = append(subs, l.YesSubtitle)
	}
	if len(subs) == 0 || l.Subtitle != l.YesSubtitle {
		subs = append(subs, l.Subtitle)
	}
	for _, sub := range subs {
		if pm, ok := names.Parse(l.Title, sub); ok {
			return pm, true
		}
	}
	return names.ParsedMatch{}, false
}

func (a *Analyzer) features(p1, p2 string, c MatchContext) (players.Features, bool) {
	id1, ok1 := a.dir.FindPlayer(p1)
	id2, ok2 := a.dir.FindPlayer(p2)
	if !ok1 || !ok2 {
		return players.Features{}, false
	}
	s1, ok1 := a.dir.GetStats(id1)
	s2, ok2 := a.dir.GetStats(id2)
	if !ok1 || !ok2 {
		return players.Features{}, false
	}

	return players.Features{
		EloDiff:           s1.Elo - s2.Elo,
		SurfaceEloDiff:    s1.SurfaceRating(c.Surface) - s2.SurfaceRating(c.Surface),
		AgeDiff:           s1.Age - s2.Age,
		HeightDiff:        s1.Height - s2.Height,
		RecentWinRateDiff: s1.RecentWinRate - s2.RecentWinRate,
		H2HWinRateDiff:    a.dir.GetH2H(id1, id2),
		IsClay:            c.Surface == players.Clay,
		IsGrass:           c.Surface == players.Grass,
		IsHard:            c.Surface == players.Hard,
		IsIndoor:          c.Indoor,
		BestOf5:           c.BestOf5,
		RoundCode:         c.Round,
		TourneyLevel:      c.Level,
	}, true
}
