package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const portfolioPageSize = 200

// GetPositions returns every market position with a nonzero holding or
// resting orders, following the cursor.
func (c *Client) GetPositions(ctx context.Context) ([]APIMarketPosition, error) {
	var all []APIMarketPosition
	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(portfolioPageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp PositionsResponse
		if err := c.get(ctx, "/portfolio/positions", query, &resp); err != nil {
			return nil, fmt.Errorf("get positions: %w", err)
		}
		all = append(all, resp.MarketPositions...)

		if resp.Cursor == "" || len(resp.MarketPositions) == 0 {
			return all, nil
		}
		cursor = resp.Cursor
	}
}

// GetOrders lists orders. An empty status returns all of them.
func (c *Client) GetOrders(ctx context.Context, status string) ([]APIOrder, error) {
	var all []APIOrder
	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(portfolioPageSize))
		if status != "" {
			query.Set("status", status)
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp OrdersResponse
		if err := c.get(ctx, "/portfolio/orders", query, &resp); err != nil {
			return nil, fmt.Errorf("get orders: %w", err)
		}
		all = append(all, resp.Orders...)

		if resp.Cursor == "" || len(resp.Orders) == 0 {
			return all, nil
		}
		cursor = resp.Cursor
	}
}

// GetFills lists executed fills.
func (c *Client) GetFills(ctx context.Context) ([]APIFill, error) {
	var all []APIFill
	cursor := ""
	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(portfolioPageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp FillsResponse
		if err := c.get(ctx, "/portfolio/fills", query, &resp); err != nil {
			return nil, fmt.Errorf("get fills: %w", err)
		}
		all = append(all, resp.Fills...)

		if resp.Cursor == "" || len(resp.Fills) == 0 {
			return all, nil
		}
		cursor = resp.Cursor
	}
}

// CreateOrder submits an order. It is never retried.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*APIOrder, error) {
	var resp CreateOrderResponse
	if err := c.post(ctx, "/portfolio/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("create order %s: %w", req.Ticker, err)
	}
	return &resp.Order, nil
}
