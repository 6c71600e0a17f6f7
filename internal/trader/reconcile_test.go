package trader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-tennis/internal/api"
)

func TestReconcile(t *testing.T) {
	f := newFixture(t, nil, nil)
	ex := &fakeExchange{
		positions: []api.APIMarketPosition{
			{Ticker: "KXATPMATCH-26JAN05AAA-A", Position: 3},
			{Ticker: "KXATPMATCH-26JAN05FLAT-F", Position: 0},
		},
		resting: []api.APIOrder{{Ticker: "KXWTAMATCH-26JAN05BBB-B", Status: "resting"}},
		fills:   []api.APIFill{{Ticker: "KXATPMATCH-26JAN04CCC-C", Count: 1}},
	}
	o := f.orchestrator(DefaultConfig(), WithExchange(ex))

	require.NoError(t, o.Reconcile(context.Background()))
	assert.Equal(t, []string{
		"KXATPMATCH-26JAN04CCC",
		"KXATPMATCH-26JAN05AAA",
		"KXWTAMATCH-26JAN05BBB",
	}, f.memory.Events())

	require.NoError(t, o.Reconcile(context.Background()))
	assert.Equal(t, 3, f.memory.Len())
}

func TestReconcile_NeedsExchange(t *testing.T) {
	f := newFixture(t, nil, nil)
	assert.Error(t, f.orchestrator(DefaultConfig()).Reconcile(context.Background()))
}
