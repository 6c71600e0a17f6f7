package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrTradingInactive is returned by CheckExchange when trading is required
// but the exchange reports it halted.
var ErrTradingInactive = errors.New("exchange trading is not active")

// GetExchangeStatus fetches the current exchange status.
func (c *Client) GetExchangeStatus(ctx context.Context) (*ExchangeStatusResponse, error) {
	var resp ExchangeStatusResponse
	if err := c.get(ctx, "/exchange/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchange status: %w", err)
	}
	return &resp, nil
}

// CheckExchange logs the exchange status at startup. Without requireTrading
// it never fails: an unreachable exchange is only a warning. With
// requireTrading, an unreadable status or inactive trading is an error.
func (c *Client) CheckExchange(ctx context.Context, requireTrading bool) error {
	status, err := c.GetExchangeStatus(ctx)
	if err != nil {
		if requireTrading {
			return err
		}
		c.logger.Warn("exchange status unavailable", "error", err)
		return nil
	}

	c.logger.Info("exchange status",
		"exchange_active", status.ExchangeActive,
		"trading_active", status.TradingActive,
	)
	if requireTrading && !status.TradingActive {
		return ErrTradingInactive
	}
	return nil
}
