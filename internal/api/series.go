package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetSeries fetches a series by ticker. The cache uses its category and
// title as discovery hints.
func (c *Client) GetSeries(ctx context.Context, seriesTicker string) (*APISeries, error) {
	var resp SeriesResponse
	if err := c.get(ctx, "/series/"+url.PathEscape(seriesTicker), nil, &resp); err != nil {
		return nil, fmt.Errorf("get series %s: %w", seriesTicker, err)
	}
	return &resp.Series, nil
}
