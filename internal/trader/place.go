package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// PlaceTrade re-validates a candidate and buys one contract on its side.
// The event is recorded in memory before a record is returned. In dry-run
// mode the order is simulated. Calls are serialized with ScanAndTrade.
func (o *Orchestrator) PlaceTrade(ctx context.Context, a model.Analysis) (*model.TradeRecord, error) {
	o.scanMu.Lock()
	defer o.scanMu.Unlock()
	return o.placeTrade(ctx, a)
}

// placeTrade is PlaceTrade for callers already holding scanMu.
func (o *Orchestrator) placeTrade(ctx context.Context, a model.Analysis) (*model.TradeRecord, error) {
	if !a.Tradable || (a.TradeSide != model.SideYes && a.TradeSide != model.SideNo) {
		return nil, ErrNotTradable
	}

	event := eventID(a)
	if event == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoEventID, a.Ticker)
	}
	if o.memory.Has(event) {
		return nil, ErrAlreadyTraded
	}
	if err := o.checkPosition(ctx, event); err != nil {
		return nil, err
	}

	start, err := o.startTime(ctx, a, event)
	if err != nil {
		return nil, err
	}
	now := o.now()
	if lead := start.Sub(now); lead <= 0 {
		return nil, ErrMatchStarted
	} else if lead < o.cfg.MinTimeBefore {
		return nil, fmt.Errorf("%w: starts in %s", ErrTooSoon, lead.Round(time.Second))
	}

	price, err := o.askPrice(ctx, a)
	if err != nil {
		return nil, err
	}

	order, err := o.submit(ctx, a, price)
	if err != nil {
		return nil, err
	}

	if _, err := o.memory.Add(event); err != nil {
		o.logger.Error("failed to persist trade memory", "event", event, "error", err)
	}

	rec := newRecord(a, event, order, o.cfg.DryRun, now)
	if o.recorder != nil {
		if err := o.recorder.Record(ctx, rec); err != nil {
			o.logger.Error("failed to record trade", "ticker", a.Ticker, "error", err)
		}
	}
	o.metrics.ObserveTrade(o.cfg.DryRun, string(a.TradeSide))

	o.logger.Info("trade placed",
		"ticker", a.Ticker,
		"event", event,
		"side", a.TradeSide,
		"bet_on", a.BetOnPlayer,
		"price", price,
		"edge", a.Edge,
		"ev", a.ExpectedValue,
		"dry_run", o.cfg.DryRun,
		"order_id", order.OrderID,
	)
	return &rec, nil
}

// checkPosition fails when a live position exists for event. Without an
// exchange, or when positions cannot be read in dry-run, it passes.
func (o *Orchestrator) checkPosition(ctx context.Context, event string) error {
	held, err := o.heldEvents(ctx)
	if err != nil {
		if o.cfg.DryRun {
			o.logger.Warn("positions unavailable in dry run", "error", err)
			return nil
		}
		return fmt.Errorf("load positions: %w", err)
	}
	if held[event] {
		if _, err := o.memory.Add(event); err != nil {
			o.logger.Error("failed to persist trade memory", "event", event, "error", err)
		}
		return ErrLivePosition
	}
	return nil
}

// startTime resolves the match start from the freshest snapshot, falling
// back to the start seen at scan time.
func (o *Orchestrator) startTime(ctx context.Context, a model.Analysis, event string) (time.Time, error) {
	snap, err := o.source.Latest(ctx)
	if err != nil {
		o.logger.Warn("fresh snapshot unavailable, using scan timing", "ticker", a.Ticker, "error", err)
	} else {
		ev := snap.EventTiming[event]
		for _, l := range snap.Listings {
			if l.Ticker == a.Ticker {
				ev.Timing = ev.Timing.Merge(l.Timing)
				break
			}
		}
		if st, ok := discovery.ResolveStart(ev, o.cfg.Discovery); ok {
			return st.Time, nil
		}
	}

	if a.StartTime != nil {
		return *a.StartTime, nil
	}
	return time.Time{}, ErrNoTiming
}

// askPrice returns the ask for the trade side in cents. The orderbook is
// preferred over the scan-time quote.
func (o *Orchestrator) askPrice(ctx context.Context, a model.Analysis) (int, error) {
	price := a.YesAsk
	if a.TradeSide == model.SideNo {
		price = a.NoAsk
	}

	if o.exchange != nil {
		resp, err := o.exchange.GetOrderbook(ctx, a.Ticker, o.cfg.OrderbookDepth)
		if err != nil {
			o.logger.Warn("orderbook unavailable, using quoted ask", "ticker", a.Ticker, "error", err)
		} else {
			book := resp.ToModel()
			var (
				ask int
				ok  bool
			)
			if a.TradeSide == model.SideYes {
				ask, ok = book.BestYesAsk()
			} else {
				ask, ok = book.BestNoAsk()
			}
			if ok {
				price = ask
			}
		}
	}

	if price <= 0 {
		return 0, ErrNoPrice
	}
	if price < o.cfg.MinPrice || price > o.cfg.MaxPrice {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrPriceOutOfBounds, price, o.cfg.MinPrice, o.cfg.MaxPrice)
	}
	return price, nil
}

// submit places a one-contract limit buy, or simulates it in dry-run.
// Errors other than a 4xx rejection leave the outcome unknown, so the event
// is recorded anyway.
func (o *Orchestrator) submit(ctx context.Context, a model.Analysis, price int) (model.Order, error) {
	clientID := uuid.NewString()

	if o.cfg.DryRun {
		return model.Order{
			OrderID:       "dry-" + clientID,
			ClientOrderID: clientID,
			Ticker:        a.Ticker,
			Side:          a.TradeSide,
			Action:        "buy",
			Count:         1,
			PriceCents:    price,
			Status:        "simulated",
		}, nil
	}
	if o.exchange == nil {
		return model.Order{}, errNoExchange
	}

	req := api.CreateOrderRequest{
		Ticker:        a.Ticker,
		ClientOrderID: clientID,
		Side:          string(a.TradeSide),
		Action:        "buy",
		Count:         1,
		Type:          "limit",
	}
	if a.TradeSide == model.SideYes {
		req.YesPrice = &price
	} else {
		req.NoPrice = &price
	}

	resp, err := o.exchange.CreateOrder(ctx, req)
	if err != nil {
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) || apiErr.IsRetryable() {
			event := eventID(a)
			if _, merr := o.memory.Add(event); merr != nil {
				o.logger.Error("failed to persist trade memory", "event", event, "error", merr)
			}
			o.logger.Error("order outcome unknown, event recorded", "ticker", a.Ticker, "client_order_id", clientID, "error", err)
		}
		return model.Order{}, fmt.Errorf("submit order: %w", err)
	}
	return resp.ToModel(), nil
}

// newRecord frames probabilities from the side actually bought.
func newRecord(a model.Analysis, event string, order model.Order, dryRun bool, now time.Time) model.TradeRecord {
	modelP, marketP := a.ModelProbability, a.MarketProbability
	if a.TradeSide == model.SideNo {
		modelP, marketP = 1-modelP, 1-marketP
	}
	return model.TradeRecord{
		Ticker:            a.Ticker,
		EventTicker:       event,
		Timestamp:         now.UTC(),
		DryRun:            dryRun,
		Order:             order,
		Player1:           a.Player1,
		Player2:           a.Player2,
		BetOnPlayer:       a.BetOnPlayer,
		Side:              a.TradeSide,
		ModelProbability:  modelP,
		MarketProbability: marketP,
		Edge:              a.TradeValue,
		ExpectedValue:     a.ExpectedValue,
	}
}
