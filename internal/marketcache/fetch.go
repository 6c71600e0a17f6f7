package marketcache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/kalshi-tennis/internal/api"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Fetch builds a new snapshot from upstream. It is the only code that calls
// the market API. Per-series failures are logged and skipped; Fetch fails
// only when every series failed.
func (c *Cache) Fetch(ctx context.Context) (*model.Snapshot, error) {
	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
	}

	var (
		listings []model.Listing
		failed   int
		lastErr  error
		seen     = make(map[string]struct{})
	)

	for _, series := range c.cfg.Series {
		batch, err := c.fetchSeries(ctx, series)
		if err != nil {
			failed++
			lastErr = err
			c.logger.Warn("series fetch failed", "series", series, "error", err)
			continue
		}
		for _, l := range batch {
			if _, dup := seen[l.Ticker]; dup {
				continue
			}
			seen[l.Ticker] = struct{}{}
			listings = append(listings, l)
		}
	}

	if failed > 0 && failed == len(c.cfg.Series) {
		return nil, fmt.Errorf("all %d series failed: %w", failed, lastErr)
	}

	c.enrichOrderbooks(ctx, listings)

	return &model.Snapshot{
		GeneratedAt: c.now().UTC(),
		Listings:    listings,
		EventTiming: buildEventTiming(listings),
	}, nil
}

// fetchSeries lists one series and stamps the series hint on each listing.
func (c *Cache) fetchSeries(ctx context.Context, series string) ([]model.Listing, error) {
	var category, title string
	if s, err := c.source.GetSeries(ctx, series); err != nil {
		c.logger.Debug("series metadata unavailable", "series", series, "error", err)
	} else {
		category, title = s.Category, s.Title
	}

	markets, err := c.source.GetAllMarkets(ctx, api.GetMarketsOptions{
		SeriesTicker: series,
		Status:       c.cfg.Status,
		Limit:        c.cfg.PageLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Listing, 0, len(markets))
	for i := range markets {
		l := markets[i].ToListing()
		l.SeriesTicker = series
		l.Category = category
		l.SeriesTitle = title
		out = append(out, l)
	}
	return out, nil
}

// enrichOrderbooks attaches orderbooks to the first OrderbookLimit listings.
// Failures leave the listing without a book.
func (c *Cache) enrichOrderbooks(ctx context.Context, listings []model.Listing) {
	n := min(c.cfg.OrderbookLimit, len(listings))
	if n <= 0 {
		return
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.OrderbookConcurrency, 1))

	for i := 0; i < n; i++ {
		g.Go(func() error {
			resp, err := c.source.GetOrderbook(gctx, listings[i].Ticker, 0)
			if err != nil {
				c.logger.Debug("orderbook fetch failed", "ticker", listings[i].Ticker, "error", err)
				return nil
			}
			listings[i].Orderbook = resp.ToModel()
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("orderbooks enriched", "count", n, "duration", time.Since(start))
}

// buildEventTiming merges timing per event across its listings. The first
// listing to report a field wins.
func buildEventTiming(listings []model.Listing) map[string]model.EventTiming {
	out := make(map[string]model.EventTiming)
	for _, l := range listings {
		if l.EventTicker == "" {
			continue
		}
		et, ok := out[l.EventTicker]
		if !ok {
			et = model.EventTiming{EventTicker: l.EventTicker}
		}
		et.Timing = et.Timing.Merge(l.Timing)
		out[l.EventTicker] = et
	}
	return out
}
