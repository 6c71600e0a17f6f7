package trader

import (
	"github.com/rickgao/kalshi-tennis/internal/config"
	"github.com/rickgao/kalshi-tennis/internal/discovery"
)

// FromConfig builds orchestrator settings from a loaded config. The
// grouping threshold follows the analyzer's minimum value.
func FromConfig(c *config.Config) Config {
	return Config{
		Discovery:        discovery.FromConfig(c.Discovery),
		DryRun:           c.Trader.IsDryRun(),
		MinEdge:          c.Analyzer.MinValue,
		BatchSize:        c.Trader.BatchSize,
		MaxTradesPerScan: c.Trader.MaxTradesPerScan,
		MinTimeBefore:    c.Trader.MinTimeBefore,
		MinPrice:         c.Trader.MinPrice,
		MaxPrice:         c.Trader.MaxPrice,
		OrderbookDepth:   DefaultConfig().OrderbookDepth,
	}
}
