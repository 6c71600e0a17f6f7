package api

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// MaxPageSize is the largest page Kalshi returns from /markets.
const MaxPageSize = 1000

// GetMarkets fetches a page of markets.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.EventTicker != "" {
		query.Set("event_ticker", opts.EventTicker)
	}
	if opts.SeriesTicker != "" {
		query.Set("series_ticker", opts.SeriesTicker)
	}
	if len(opts.Tickers) > 0 {
		query.Set("tickers", strings.Join(opts.Tickers, ","))
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	var resp MarketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}

	return &resp, nil
}

// GetAllMarkets pages through /markets until the cursor runs out.
// A zero Limit uses MaxPageSize.
func (c *Client) GetAllMarkets(ctx context.Context, opts GetMarketsOptions) ([]APIMarket, error) {
	var allMarkets []APIMarket
	if opts.Limit <= 0 || opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}

	for {
		resp, err := c.GetMarkets(ctx, opts)
		if err != nil {
			return nil, err
		}

		allMarkets = append(allMarkets, resp.Markets...)

		if resp.Cursor == "" || len(resp.Markets) == 0 {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return allMarkets, nil
}

// GetOrderbook fetches the orderbook for a market. Levels come back
// best-first (highest bid at index 0).
func (c *Client) GetOrderbook(ctx context.Context, ticker string, depth int) (*OrderbookResponse, error) {
	query := url.Values{}
	if depth > 0 {
		query.Set("depth", strconv.Itoa(depth))
	}

	var resp OrderbookResponse
	if err := c.get(ctx, "/markets/"+url.PathEscape(ticker)+"/orderbook", query, &resp); err != nil {
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, err)
	}

	sortLevelsDesc(resp.Orderbook.Yes)
	sortLevelsDesc(resp.Orderbook.No)
	return &resp, nil
}

// Kalshi sends bids ascending by price.
func sortLevelsDesc(levels [][]int) {
	sort.SliceStable(levels, func(i, j int) bool {
		if len(levels[i]) == 0 || len(levels[j]) == 0 {
			return len(levels[i]) > len(levels[j])
		}
		return levels[i][0] > levels[j][0]
	})
}
