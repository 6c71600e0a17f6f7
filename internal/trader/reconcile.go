package trader

import (
	"context"
	"fmt"

	"github.com/rickgao/kalshi-tennis/internal/api"
)

// Reconcile adds every event with a live position, resting order or past
// fill on the exchange to memory.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	if o.exchange == nil {
		return errNoExchange
	}

	held, err := o.heldEvents(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	events := make([]string, 0, len(held))
	for e := range held {
		events = append(events, e)
	}

	orders, err := o.exchange.GetOrders(ctx, "resting")
	if err != nil {
		return fmt.Errorf("load resting orders: %w", err)
	}
	for _, ord := range orders {
		events = append(events, api.EventTickerFromTicker(ord.Ticker))
	}

	fills, err := o.exchange.GetFills(ctx)
	if err != nil {
		return fmt.Errorf("load fills: %w", err)
	}
	for _, f := range fills {
		events = append(events, f.ToModel().EventTicker)
	}

	added, err := o.memory.AddAll(events)
	if err != nil {
		o.logger.Error("failed to persist trade memory", "error", err)
	}
	o.logger.Info("reconciled trade memory",
		"positions", len(held),
		"resting_orders", len(orders),
		"fills", len(fills),
		"added", added,
		"total", o.memory.Len(),
	)
	return nil
}
