package marketcache

import "github.com/rickgao/kalshi-tennis/internal/config"

// FromConfig converts the loaded cache section.
func FromConfig(c config.CacheConfig) Config {
	return Config{
		Series:               c.Series,
		Status:               c.Status,
		PageLimit:            c.PageLimit,
		OrderbookLimit:       c.OrderbookLimit,
		OrderbookConcurrency: c.OrderbookConcurrency,
		PollInterval:         c.PollInterval,
		FetchTimeout:         c.FetchTimeout,
		StaleAfter:           c.StaleAfter,
	}
}
