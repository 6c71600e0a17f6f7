package discovery

import (
	"time"

	"github.com/rickgao/kalshi-tennis/internal/config"
)

// Config holds filter thresholds and word lists. Word lists are matched
// case-insensitively.
type Config struct {
	SeriesPrefixes      []string // Series ticker fragments, e.g. "kxatpmatch"
	Keywords            []string // Sport keywords
	ExcludedKeywords    []string // Other-sport keywords, matched as whole words
	ExcludedTournaments []string // Title words marking non head-to-head markets

	Horizon          time.Duration // Latest accepted start
	PastGrace        time.Duration // How far in the past a start may be
	MinStartBuffer   time.Duration // Minimum lead time for an explicit start
	ExpirationOffset time.Duration // Subtracted from expiration-derived times
	ImplausibleAfter time.Duration // Starts beyond this are tournament closes
	MinVolume        float64       // Normalized major units
}

// FromConfig converts the loaded discovery section.
func FromConfig(c config.DiscoveryConfig) Config {
	return Config{
		SeriesPrefixes:      c.SeriesPrefixes,
		Keywords:            c.Keywords,
		ExcludedKeywords:    c.ExcludedKeywords,
		ExcludedTournaments: c.ExcludedTournaments,
		Horizon:             c.Horizon,
		PastGrace:           c.PastGrace,
		MinStartBuffer:      c.MinStartBuffer,
		ExpirationOffset:    c.ExpirationOffset,
		ImplausibleAfter:    c.ImplausibleAfter,
		MinVolume:           c.MinVolume,
	}
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return FromConfig(config.Default().Discovery)
}
