package trader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rickgao/kalshi-tennis/internal/config"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, DefaultConfig(), FromConfig(cfg))

	live := false
	cfg.Trader.DryRun = &live
	cfg.Trader.MinTimeBefore = 30 * time.Minute
	cfg.Analyzer.MinValue = 0.07

	got := FromConfig(cfg)
	assert.False(t, got.DryRun)
	assert.Equal(t, 30*time.Minute, got.MinTimeBefore)
	assert.InDelta(t, 0.07, got.MinEdge, 1e-12)
}
