package trader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/grouper"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// ScanAndTrade runs one full cycle and returns the trades placed, real or
// simulated. A scan that finds nothing is not an error.
func (o *Orchestrator) ScanAndTrade(ctx context.Context) ([]model.TradeRecord, error) {
	o.scanMu.Lock()
	defer o.scanMu.Unlock()

	start := time.Now()
	defer func() { o.metrics.ObserveScan(time.Since(start)) }()

	candidates, err := o.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := o.prefilter(ctx, candidates)
	if err != nil {
		return nil, err
	}

	var trades []model.TradeRecord
	for i := 0; i < len(pending) && len(trades) < o.cfg.MaxTradesPerScan; i += o.cfg.BatchSize {
		end := min(i+o.cfg.BatchSize, len(pending))

		placed := 0
		for _, a := range pending[i:end] {
			if len(trades) >= o.cfg.MaxTradesPerScan {
				break
			}
			if err := ctx.Err(); err != nil {
				return trades, err
			}

			rec, err := o.placeTrade(ctx, a)
			if err != nil {
				o.metrics.ObserveTradeRejection(rejectionReason(err))
				o.logger.Info("trade skipped",
					"ticker", a.Ticker,
					"event", eventID(a),
					"reason", err,
				)
				continue
			}
			trades = append(trades, *rec)
			placed++
		}

		if placed == 0 {
			o.logger.Debug("batch placed nothing, stopping", "batch_start", i)
			break
		}
	}

	o.logger.Info("scan complete",
		"candidates", len(candidates),
		"pending", len(pending),
		"trades", len(trades),
		"dry_run", o.cfg.DryRun,
		"duration", time.Since(start),
	)
	return trades, nil
}

// Candidates runs discovery, analysis and grouping on the latest snapshot.
// The result is tradable, one per match, highest volume first.
func (o *Orchestrator) Candidates(ctx context.Context) ([]model.Analysis, error) {
	snap, err := o.source.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	accepted, rejected := discovery.Partition(discovery.PairsFromSnapshot(snap), o.cfg.Discovery, o.now())
	for _, r := range rejected {
		o.metrics.ObserveRejection(r.Reason)
	}

	analyses := o.analyzer.AnalyzeAll(ctx, accepted)

	var candidates []model.Analysis
	for _, d := range grouper.Explain(analyses, o.cfg.MinEdge) {
		if d.Selected == nil {
			if d.Reason != grouper.ReasonNoTradable {
				o.logger.Debug("event skipped by grouper", "event", d.EventTicker, "reason", d.Reason)
			}
			continue
		}
		candidates = append(candidates, *d.Selected)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MarketVolume > candidates[j].MarketVolume
	})

	o.logger.Debug("candidates ready",
		"listings", len(snap.Listings),
		"accepted", len(accepted),
		"rejected", len(rejected),
		"tradable", len(candidates),
	)
	return candidates, nil
}

// prefilter drops candidates whose event is already traded or held. Held
// events found here are added to memory.
func (o *Orchestrator) prefilter(ctx context.Context, candidates []model.Analysis) ([]model.Analysis, error) {
	held, err := o.heldEvents(ctx)
	if err != nil {
		if !o.cfg.DryRun {
			return nil, fmt.Errorf("load positions: %w", err)
		}
		o.logger.Warn("positions unavailable in dry run", "error", err)
	}

	var (
		pending []model.Analysis
		healed  []string
	)
	for _, a := range candidates {
		event := eventID(a)
		switch {
		case event == "":
			o.metrics.ObserveTradeRejection(rejectionReason(ErrNoEventID))
		case o.memory.Has(event):
			o.metrics.ObserveTradeRejection(rejectionReason(ErrAlreadyTraded))
		case held[event]:
			healed = append(healed, event)
			o.metrics.ObserveTradeRejection(rejectionReason(ErrLivePosition))
		default:
			pending = append(pending, a)
		}
	}

	if len(healed) > 0 {
		n, err := o.memory.AddAll(healed)
		if err != nil {
			o.logger.Error("failed to persist trade memory", "error", err)
		}
		o.logger.Info("recorded held events in memory", "events", n)
	}
	return pending, nil
}

// heldEvents returns events with a live position or resting orders. It
// returns nil without error when no exchange is configured.
func (o *Orchestrator) heldEvents(ctx context.Context) (map[string]bool, error) {
	if o.exchange == nil {
		return nil, nil
	}
	positions, err := o.exchange.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	held := make(map[string]bool)
	for _, p := range positions {
		pos := p.ToModel()
		if pos.EventTicker != "" && (pos.Contracts != 0 || pos.RestingOrders > 0) {
			held[pos.EventTicker] = true
		}
	}
	return held, nil
}

// errNoExchange is returned by operations that need a live exchange.
var errNoExchange = errors.New("no exchange configured")
