// Package history keeps a durable log of placed and simulated trades.
//
// Two stores are provided: SQLite for a single host and Postgres for
// shared deployments. Both satisfy trader.Recorder.
package history

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/config"
	"github.com/rickgao/kalshi-tennis/internal/database"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Store appends and lists trade records.
type Store interface {
	Record(ctx context.Context, rec model.TradeRecord) error
	RecordBatch(ctx context.Context, recs []model.TradeRecord) (int, error)
	Recent(ctx context.Context, n int) ([]model.TradeRecord, error)
	Close() error
}

// Open returns the store selected by cfg. An empty driver returns a nil
// store and no error.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect history database: %w", err)
		}
		s := NewPostgres(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// Import copies up to limit of the newest records in src into dst, oldest
// first, and returns how many dst did not already hold.
func Import(ctx context.Context, dst, src Store, limit int) (int, error) {
	recs, err := src.Recent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("read source history: %w", err)
	}
	slices.Reverse(recs)

	n, err := dst.RecordBatch(ctx, recs)
	if err != nil {
		return n, fmt.Errorf("write history: %w", err)
	}
	return n, nil
}

// row is the flat storage form shared by both stores. Timestamps are Unix
// microseconds.
type row struct {
	OrderID           string
	ClientOrderID     string
	Ticker            string
	EventTicker       string
	PlacedAt          int64
	DryRun            bool
	Side              string
	Action            string
	Count             int
	PriceCents        int
	Status            string
	Player1           string
	Player2           string
	BetOnPlayer       string
	ModelProbability  float64
	MarketProbability float64
	Edge              float64
	ExpectedValue     float64
}

func toRow(rec model.TradeRecord) row {
	return row{
		OrderID:           rec.Order.OrderID,
		ClientOrderID:     rec.Order.ClientOrderID,
		Ticker:            rec.Ticker,
		EventTicker:       rec.EventTicker,
		PlacedAt:          rec.Timestamp.UnixMicro(),
		DryRun:            rec.DryRun,
		Side:              string(rec.Side),
		Action:            rec.Order.Action,
		Count:             rec.Order.Count,
		PriceCents:        rec.Order.PriceCents,
		Status:            rec.Order.Status,
		Player1:           rec.Player1,
		Player2:           rec.Player2,
		BetOnPlayer:       rec.BetOnPlayer,
		ModelProbability:  rec.ModelProbability,
		MarketProbability: rec.MarketProbability,
		Edge:              rec.Edge,
		ExpectedValue:     rec.ExpectedValue,
	}
}

func (r row) toModel() model.TradeRecord {
	side := model.TradeSide(r.Side)
	return model.TradeRecord{
		Ticker:      r.Ticker,
		EventTicker: r.EventTicker,
		Timestamp:   time.UnixMicro(r.PlacedAt).UTC(),
		DryRun:      r.DryRun,
		Order: model.Order{
			OrderID:       r.OrderID,
			ClientOrderID: r.ClientOrderID,
			Ticker:        r.Ticker,
			Side:          side,
			Action:        r.Action,
			Count:         r.Count,
			PriceCents:    r.PriceCents,
			Status:        r.Status,
		},
		Player1:           r.Player1,
		Player2:           r.Player2,
		BetOnPlayer:       r.BetOnPlayer,
		Side:              side,
		ModelProbability:  r.ModelProbability,
		MarketProbability: r.MarketProbability,
		Edge:              r.Edge,
		ExpectedValue:     r.ExpectedValue,
	}
}

// dest returns scan targets in column order.
func (r *row) dest() []any {
	return []any{
		&r.OrderID, &r.ClientOrderID, &r.Ticker, &r.EventTicker, &r.PlacedAt,
		&r.DryRun, &r.Side, &r.Action, &r.Count, &r.PriceCents, &r.Status,
		&r.Player1, &r.Player2, &r.BetOnPlayer, &r.ModelProbability,
		&r.MarketProbability, &r.Edge, &r.ExpectedValue,
	}
}

// args returns insert arguments in column order.
func (r row) args() []any {
	return []any{
		r.OrderID, r.ClientOrderID, r.Ticker, r.EventTicker, r.PlacedAt,
		r.DryRun, r.Side, r.Action, r.Count, r.PriceCents, r.Status,
		r.Player1, r.Player2, r.BetOnPlayer, r.ModelProbability,
		r.MarketProbability, r.Edge, r.ExpectedValue,
	}
}

const columns = `order_id, client_order_id, ticker, event_ticker, placed_at,
	dry_run, side, action, contracts, price_cents, status,
	player1, player2, bet_on_player, model_probability,
	market_probability, edge, expected_value`
