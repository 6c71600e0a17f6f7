package analyzer

import "github.com/rickgao/kalshi-tennis/internal/config"

// FromConfig converts the loaded analyzer section.
func FromConfig(c config.AnalyzerConfig) Config {
	return Config{
		DeadZone: c.DeadZone,
		MinValue: c.MinValue,
		MinEV:    c.MinEV,
		Workers:  c.Workers,
	}
}
